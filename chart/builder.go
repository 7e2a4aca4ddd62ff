// Package chart turns raw historical series into labeled, colored,
// time-ordered series for the rendering sink.
package chart

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"token-watch/cache"
	"token-watch/config"
	"token-watch/marketdata"
)

// Color of a rendered series. Comparison colors are fixed by selection
// order, not by symbol.
type Color string

const (
	Blue Color = "blue"
	Red  Color = "red"
)

type Series struct {
	Label  string
	Color  Color
	Points []marketdata.Point
}

// MarketSource is the slice of the market data client the builder needs.
type MarketSource interface {
	HistoricalSeries(token *config.TokenDescriptor, period marketdata.Period) ([]marketdata.Point, error)
}

type Builder struct {
	market MarketSource
	store  *cache.Store
	ttl    time.Duration
}

func NewBuilder(market MarketSource, store *cache.Store, ttl time.Duration) *Builder {
	return &Builder{market: market, store: store, ttl: ttl}
}

// BuildSingle builds the series for the single-token view. The hourly and
// weekly windows cache independently, so toggling the period never evicts
// the other window.
func (b *Builder) BuildSingle(token *config.TokenDescriptor, period marketdata.Period) (*Series, error) {
	points, err := b.points(token, period)
	if err != nil {
		return nil, err
	}
	return &Series{
		Label:  token.Name + " Price Trend (USD)",
		Color:  Blue,
		Points: points,
	}, nil
}

// BuildComparison builds the side-by-side pair over the hourly window. The
// first selected token is always blue and the second always red, regardless
// of which fetch completes first.
func (b *Builder) BuildComparison(first, second *config.TokenDescriptor) (*Series, *Series, error) {
	type result struct {
		series *Series
		err    error
	}
	firstCh := make(chan result, 1)
	go func() {
		series, err := b.BuildSingle(first, marketdata.Hourly)
		firstCh <- result{series, err}
	}()

	secondSeries, secondErr := b.BuildSingle(second, marketdata.Hourly)
	firstRes := <-firstCh
	if firstRes.err != nil {
		return nil, nil, firstRes.err
	}
	if secondErr != nil {
		return nil, nil, secondErr
	}
	secondSeries.Color = Red
	return firstRes.series, secondSeries, nil
}

func (b *Builder) points(token *config.TokenDescriptor, period marketdata.Period) ([]marketdata.Point, error) {
	key := cache.Key(token.Symbol, "series", string(period))
	if cached, ok := b.store.Get(key); ok {
		logrus.Debugf("%s %s series served from cache", token.Symbol, period)
		return cached.([]marketdata.Point), nil
	}

	points, err := b.market.HistoricalSeries(token, period)
	if err != nil {
		return nil, err
	}
	// The API returns ascending timestamps; sort only when that assumption
	// is violated, to preserve the source ordering byte for byte otherwise.
	if !sort.SliceIsSorted(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) }) {
		sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	}
	b.store.Put(key, points, b.ttl)
	return points, nil
}
