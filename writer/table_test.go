package writer

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"token-watch/config"
	"token-watch/token"
)

func init() {
	color.NoColor = true // keep assertions free of escape codes
}

var ethToken = &config.TokenDescriptor{ID: 1, Symbol: "ETH", Name: "Ethereum", ExternalID: "ethereum"}

func TestRow(t *testing.T) {
	viper.Set("show", []string{config.ColumnSymbol, config.ColumnPrice, config.ColumnMarketCap,
		config.ColumnVolume, config.ColumnChange24hPct, config.ColumnUpdated})
	tw := &tableWriter{}

	t.Run("RoundsMonetaryFieldsToTwoDecimals", func(t *testing.T) {
		snapshot := &token.Snapshot{
			Token:         ethToken,
			PriceUSD:      decimal.RequireFromString("1234.56789"),
			MarketCapUSD:  decimal.RequireFromString("360845127543.129"),
			Volume24hUSD:  decimal.RequireFromString("15733514004.851"),
			Change24hPct:  decimal.RequireFromString("-2.534"),
			LastUpdatedAt: time.Unix(1700000000, 0),
		}
		columns := tw.row(ethToken, snapshot)
		if columns[1] != "$1234.57" {
			t.Fatalf("Got price column %q, want $1234.57", columns[1])
		}
		if columns[2] != "$360845127543.13" {
			t.Fatalf("Got market cap column %q", columns[2])
		}
		if columns[3] != "$15733514004.85" {
			t.Fatalf("Got volume column %q", columns[3])
		}
		if columns[4] != "-2.53" {
			t.Fatalf("Got change column %q, want -2.53", columns[4])
		}
	})

	t.Run("PlaceholdersUntilFirstSnapshot", func(t *testing.T) {
		columns := tw.row(ethToken, nil)
		if columns[0] != "ETH" {
			t.Fatalf("The symbol is known before any fetch, got %q", columns[0])
		}
		for i, column := range columns[1:] {
			if !strings.Contains(column, placeholder) {
				t.Fatalf("Column %d shows %q, want the %q placeholder", i+1, column, placeholder)
			}
		}
	})
}

func TestHighlightChange(t *testing.T) {
	tw := &tableWriter{}
	if got := tw.highlightChange(decimal.Zero); got != "0" {
		t.Fatalf("Got %q for a zero change, want the faint 0", got)
	}
	if got := tw.highlightChange(decimal.RequireFromString("1.005")); got != "1.01" {
		t.Fatalf("Got %q, want 1.01", got)
	}
}
