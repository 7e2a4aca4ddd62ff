package chart

import (
	"sync/atomic"
	"testing"
	"time"

	"token-watch/cache"
	"token-watch/config"
	"token-watch/marketdata"
)

var (
	ethToken = &config.TokenDescriptor{ID: 1, Symbol: "ETH", Name: "Ethereum", ExternalID: "ethereum"}
	btcToken = &config.TokenDescriptor{ID: 2, Symbol: "BTC", Name: "Bitcoin", ExternalID: "bitcoin"}
)

type fakeSource struct {
	calls  int64
	points map[string][]marketdata.Point
	delay  map[string]time.Duration
}

func (f *fakeSource) HistoricalSeries(tok *config.TokenDescriptor, period marketdata.Period) ([]marketdata.Point, error) {
	atomic.AddInt64(&f.calls, 1)
	if d, ok := f.delay[tok.Symbol]; ok {
		time.Sleep(d)
	}
	return f.points[tok.Symbol+":"+string(period)], nil
}

func ascending(n int) []marketdata.Point {
	base := time.Unix(1700000000, 0)
	points := make([]marketdata.Point, n)
	for i := range points {
		points[i] = marketdata.Point{Time: base.Add(time.Duration(i) * time.Hour), Price: 3000 + float64(i)}
	}
	return points
}

func newTestBuilder(source *fakeSource) *Builder {
	return NewBuilder(source, cache.New(), 10*time.Minute)
}

func TestBuildSingle(t *testing.T) {
	t.Run("KeepsSourceOrderAndLabels", func(t *testing.T) {
		source := &fakeSource{points: map[string][]marketdata.Point{"ETH:hourly": ascending(24)}}
		builder := newTestBuilder(source)

		series, err := builder.BuildSingle(ethToken, marketdata.Hourly)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if series.Label != "Ethereum Price Trend (USD)" {
			t.Fatalf("Got label %q", series.Label)
		}
		if series.Color != Blue {
			t.Fatalf("Single view renders blue, got %q", series.Color)
		}
		if len(series.Points) != 24 {
			t.Fatalf("Got %d points, want 24", len(series.Points))
		}
		for i := 1; i < len(series.Points); i++ {
			if !series.Points[i-1].Time.Before(series.Points[i].Time) {
				t.Fatalf("Points out of order at %d", i)
			}
		}
	})

	t.Run("SortsOnlyWhenSourceIsUnordered", func(t *testing.T) {
		shuffled := []marketdata.Point{
			{Time: time.Unix(1700007200, 0), Price: 3},
			{Time: time.Unix(1700000000, 0), Price: 1},
			{Time: time.Unix(1700003600, 0), Price: 2},
		}
		source := &fakeSource{points: map[string][]marketdata.Point{"ETH:hourly": shuffled}}
		builder := newTestBuilder(source)

		series, err := builder.BuildSingle(ethToken, marketdata.Hourly)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for i, wantPrice := range []float64{1, 2, 3} {
			if series.Points[i].Price != wantPrice {
				t.Fatalf("Point %d has price %v, want %v after the ascending sort", i, series.Points[i].Price, wantPrice)
			}
		}
	})

	t.Run("PeriodsCacheIndependently", func(t *testing.T) {
		source := &fakeSource{points: map[string][]marketdata.Point{
			"ETH:hourly": ascending(24),
			"ETH:weekly": ascending(7 * 24),
		}}
		builder := newTestBuilder(source)

		if _, err := builder.BuildSingle(ethToken, marketdata.Hourly); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, err := builder.BuildSingle(ethToken, marketdata.Weekly); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		// Toggling back must hit the hourly entry, not refetch it
		series, err := builder.BuildSingle(ethToken, marketdata.Hourly)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(series.Points) != 24 {
			t.Fatalf("Got %d points, want the cached hourly window", len(series.Points))
		}
		if source.calls != 2 {
			t.Fatalf("Got %d source calls, want 2 (one per period)", source.calls)
		}
	})
}

func TestBuildComparison(t *testing.T) {
	t.Run("ColorsFollowSelectionOrder", func(t *testing.T) {
		// BTC resolves well after ETH; colors must not depend on that
		source := &fakeSource{
			points: map[string][]marketdata.Point{
				"ETH:hourly": ascending(24),
				"BTC:hourly": ascending(24),
			},
			delay: map[string]time.Duration{"ETH": 20 * time.Millisecond},
		}
		builder := newTestBuilder(source)

		first, second, err := builder.BuildComparison(ethToken, btcToken)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if first.Color != Blue || second.Color != Red {
			t.Fatalf("Got colors %q/%q, want blue/red by selection order", first.Color, second.Color)
		}
		if first.Label != "Ethereum Price Trend (USD)" || second.Label != "Bitcoin Price Trend (USD)" {
			t.Fatalf("Got labels %q/%q", first.Label, second.Label)
		}
	})

	t.Run("ReversedSelectionFlipsColors", func(t *testing.T) {
		source := &fakeSource{points: map[string][]marketdata.Point{
			"ETH:hourly": ascending(24),
			"BTC:hourly": ascending(24),
		}}
		builder := newTestBuilder(source)

		first, second, err := builder.BuildComparison(btcToken, ethToken)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if first.Label != "Bitcoin Price Trend (USD)" || first.Color != Blue {
			t.Fatalf("First selected must be blue whatever the symbol, got %q %q", first.Label, first.Color)
		}
		if second.Color != Red {
			t.Fatalf("Second selected must be red, got %q", second.Color)
		}
	})

	t.Run("SharesTheSeriesCache", func(t *testing.T) {
		source := &fakeSource{points: map[string][]marketdata.Point{
			"ETH:hourly": ascending(24),
			"BTC:hourly": ascending(24),
		}}
		builder := newTestBuilder(source)

		if _, err := builder.BuildSingle(ethToken, marketdata.Hourly); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, _, err := builder.BuildComparison(ethToken, btcToken); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if source.calls != 2 {
			t.Fatalf("Got %d source calls, want 2 (ETH hourly shared between views)", source.calls)
		}
	})
}
