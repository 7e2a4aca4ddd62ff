package token

import (
	"time"

	"github.com/shopspring/decimal"

	"token-watch/config"
)

// Snapshot is the merged point-in-time view of one token: the on-chain spot
// price plus the off-chain market statistics. A snapshot is replaced
// wholesale on every successful refresh, never patched field by field.
type Snapshot struct {
	Token         *config.TokenDescriptor
	PriceUSD      decimal.Decimal
	MarketCapUSD  decimal.Decimal
	Volume24hUSD  decimal.Decimal
	Change24hPct  decimal.Decimal
	LastUpdatedAt time.Time
}
