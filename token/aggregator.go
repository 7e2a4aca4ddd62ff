// Package token merges the two upstream feeds into cached snapshots.
package token

import (
	"time"

	"github.com/sirupsen/logrus"

	"token-watch/cache"
	"token-watch/config"
	"token-watch/marketdata"
	"token-watch/oracle"
)

// PriceFeed is the on-chain side of a snapshot.
type PriceFeed interface {
	SpotPrice(token *config.TokenDescriptor) (*oracle.PricePoint, error)
}

// MarketData is the off-chain side.
type MarketData interface {
	MarketStats(token *config.TokenDescriptor) (*marketdata.Stats, error)
}

type Aggregator struct {
	feed   PriceFeed
	market MarketData
	store  *cache.Store
	ttl    time.Duration
	now    func() time.Time
}

func NewAggregator(feed PriceFeed, market MarketData, store *cache.Store, ttl time.Duration) *Aggregator {
	return &Aggregator{
		feed:   feed,
		market: market,
		store:  store,
		ttl:    ttl,
		now:    time.Now,
	}
}

// RefreshSnapshot returns a fresh snapshot for the token, serving straight
// from cache when the previous one is still within its TTL — the dominant
// path under steady polling. On a miss both sources are queried and both
// must succeed; a failure propagates as-is and leaves the cache untouched,
// so a transient error never blanks previously shown values.
func (a *Aggregator) RefreshSnapshot(token *config.TokenDescriptor) (*Snapshot, error) {
	key := cache.Key(token.Symbol, "snapshot")
	if cached, ok := a.store.Get(key); ok {
		logrus.Debugf("%s snapshot served from cache", token.Symbol)
		return cached.(*Snapshot), nil
	}

	// Both sources are independent, fetch them concurrently.
	type feedResult struct {
		point *oracle.PricePoint
		err   error
	}
	feedCh := make(chan feedResult, 1)
	go func() {
		point, err := a.feed.SpotPrice(token)
		feedCh <- feedResult{point, err}
	}()

	stats, statsErr := a.market.MarketStats(token)
	feedRes := <-feedCh
	if feedRes.err != nil {
		return nil, feedRes.err
	}
	if statsErr != nil {
		return nil, statsErr
	}

	snapshot := &Snapshot{
		Token:         token,
		PriceUSD:      feedRes.point.Price,
		MarketCapUSD:  stats.MarketCapUSD,
		Volume24hUSD:  stats.Volume24hUSD,
		Change24hPct:  stats.Change24hPct,
		LastUpdatedAt: a.now(),
	}
	// LastUpdatedAt is stamped at write time, not request time, and never
	// moves backward even if an older in-flight refresh lands last.
	if cached, ok := a.store.Get(key); ok {
		if prev := cached.(*Snapshot); prev.LastUpdatedAt.After(snapshot.LastUpdatedAt) {
			snapshot.LastUpdatedAt = prev.LastUpdatedAt
		}
	}
	a.store.Put(key, snapshot, a.ttl)
	return snapshot, nil
}

// RefreshAll fans out one refresh per token and collects results in request
// order. A failed token yields a nil slot so the view keeps its placeholder
// or last-known row.
func (a *Aggregator) RefreshAll(tokens []*config.TokenDescriptor) []*Snapshot {
	// Use a slice to hold the waiting chans in order to keep requested order
	waitingChans := make([]chan *Snapshot, 0, len(tokens))
	for _, tok := range tokens {
		doneCh := make(chan *Snapshot, 1)
		waitingChans = append(waitingChans, doneCh)
		go func(tok *config.TokenDescriptor) {
			snapshot, err := a.RefreshSnapshot(tok)
			if err != nil {
				logrus.WithError(err).Warnf("Failed to refresh snapshot for %s", tok.Symbol)
				close(doneCh) // closed chan signals the failure
			} else {
				doneCh <- snapshot
			}
		}(tok)
	}

	snapshots := make([]*Snapshot, len(waitingChans))
	for i, doneCh := range waitingChans {
		snapshots[i] = <-doneCh
	}
	return snapshots
}
