package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"token-watch/cache"
	"token-watch/chart"
	"token-watch/config"
	"token-watch/httpclient"
	"token-watch/marketdata"
	"token-watch/oracle"
	"token-watch/poller"
	"token-watch/token"
	"token-watch/writer"
)

func main() {
	cfg := config.Parse()

	httpClient := httpclient.New(time.Duration(cfg.Timeout)*time.Second, cfg.Proxy)
	feed := oracle.NewClient(cfg.RPCURL, httpClient)
	market := marketdata.NewClient(cfg.MarketDataURL, httpClient)

	// One shared cache keyed by symbol, so the single-token and comparison
	// paths never fetch the same data twice within a TTL window.
	store := cache.New()
	aggregator := token.NewAggregator(feed, market, store, cfg.CacheTTL())
	builder := chart.NewBuilder(market, store, cfg.CacheTTL())

	if cfg.Compare != "" {
		runCompare(cfg, aggregator, builder)
		return
	}
	runWatch(cfg, aggregator, builder)
}

// runCompare renders two tokens side by side once and exits, the terminal
// counterpart of the original compare view.
func runCompare(cfg *config.Config, aggregator *token.Aggregator, builder *chart.Builder) {
	symbols := strings.Split(cfg.Compare, ",")
	if len(symbols) != 2 {
		logrus.Fatalf("--compare expects exactly two comma-separated symbols, got %q", cfg.Compare)
	}
	first := cfg.FindToken(strings.TrimSpace(symbols[0]))
	second := cfg.FindToken(strings.TrimSpace(symbols[1]))
	if first == nil || second == nil {
		logrus.Fatalf("Unknown token in %q, use --list-tokens to see the supported set", cfg.Compare)
	}

	pair := []*config.TokenDescriptor{first, second}
	snapshots := aggregator.RefreshAll(pair)

	firstSeries, secondSeries, err := builder.BuildComparison(first, second)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build comparison series")
	}

	tw := writer.NewTableWriter()
	tw.Render(pair, snapshots, firstSeries, secondSeries)
}

// runWatch shows the whole supported set and keeps the selected token fresh
// through the scheduler.
func runWatch(cfg *config.Config, aggregator *token.Aggregator, builder *chart.Builder) {
	selected := cfg.FindToken(cfg.Token)
	if selected == nil {
		logrus.Fatalf("Unknown token %q, use --list-tokens to see the supported set", cfg.Token)
	}
	period, err := marketdata.ParsePeriod(cfg.Period)
	if err != nil {
		logrus.Fatal(err)
	}

	tw := writer.NewTableWriter()
	snapshots := aggregator.RefreshAll(cfg.Tokens)
	tw.Render(cfg.Tokens, snapshots, buildChart(builder, selected, period))

	if cfg.Refresh == 0 {
		return
	}
	logrus.Infof("Auto refreshing %s every %d seconds", selected.Symbol, cfg.Refresh)

	scheduler := poller.NewScheduler(aggregator.RefreshSnapshot)
	scheduler.Start(selected, cfg.RefreshInterval(),
		func(snapshot *token.Snapshot) {
			for i, tok := range cfg.Tokens {
				if tok.Symbol == snapshot.Token.Symbol {
					snapshots[i] = snapshot
				}
			}
			tw.Render(cfg.Tokens, snapshots, buildChart(builder, selected, period))
		},
		func(err error) {
			// Keep the last good table on screen, the next tick retries.
			logrus.WithError(err).Warnf("Failed to refresh %s", selected.Symbol)
		})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	scheduler.Stop()
}

// buildChart tolerates series failures: the table still renders and the
// next redraw retries through the cache-first path.
func buildChart(builder *chart.Builder, tok *config.TokenDescriptor, period marketdata.Period) *chart.Series {
	series, err := builder.BuildSingle(tok, period)
	if err != nil {
		logrus.WithError(err).Warnf("Failed to build %s %s series", tok.Symbol, period)
		return nil
	}
	return series
}
