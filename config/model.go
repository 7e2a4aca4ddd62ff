package config

import (
	"strings"
	"time"
)

const (
	ColumnSymbol       = "Symbol"
	ColumnPrice        = "Price"
	ColumnMarketCap    = "MarketCap"
	ColumnVolume       = "Volume(24h)"
	ColumnChange24hPct = "%Change(24h)"
	ColumnUpdated      = "Updated"
)

func supportedColumns() []string {
	return []string{ColumnSymbol, ColumnPrice, ColumnMarketCap, ColumnVolume, ColumnChange24hPct, ColumnUpdated}
}

// TokenDescriptor binds a supported token to its two upstream identities:
// the CoinGecko id and the Chainlink aggregator address. The set is fixed
// at startup; descriptors are never mutated afterwards.
type TokenDescriptor struct {
	ID            int    `mapstructure:"id"`
	Symbol        string `mapstructure:"symbol"`
	Name          string `mapstructure:"name"`
	ExternalID    string `mapstructure:"external_id"`
	OracleAddress string `mapstructure:"oracle_address"`
}

type Config struct {
	RPCURL        string             `mapstructure:"rpc-url"`
	MarketDataURL string             `mapstructure:"market-data-url"`
	Timeout       int                `mapstructure:"timeout"`
	Proxy         string             `mapstructure:"proxy"`
	Refresh       int                `mapstructure:"refresh"`
	CacheTTLMin   int                `mapstructure:"cache-ttl"`
	Columns       []string           `mapstructure:"show"`
	Debug         bool               `mapstructure:"debug"`
	Token         string             `mapstructure:"token"`
	Compare       string             `mapstructure:"compare"`
	Period        string             `mapstructure:"period"`
	Tokens        []*TokenDescriptor `mapstructure:"tokens"`
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMin) * time.Minute
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh) * time.Second
}

// FindToken looks a descriptor up by symbol, case-insensitively.
func (c *Config) FindToken(symbol string) *TokenDescriptor {
	for _, token := range c.Tokens {
		if strings.EqualFold(token.Symbol, symbol) {
			return token
		}
	}
	return nil
}

// Sepolia Chainlink price feeds and CoinGecko ids for the supported set.
func defaultTokens() []*TokenDescriptor {
	return []*TokenDescriptor{
		{ID: 1, Symbol: "ETH", Name: "Ethereum", ExternalID: "ethereum", OracleAddress: "0x694AA1769357215DE4FAC081bf1f309aDC325306"},
		{ID: 2, Symbol: "BTC", Name: "Bitcoin", ExternalID: "bitcoin", OracleAddress: "0x1b44F3514812d835EB1BDB0acB33d3fA3351Ee43"},
		{ID: 3, Symbol: "LINK", Name: "Chainlink", ExternalID: "chainlink", OracleAddress: "0xc59E3633BAAC79493d908e63626716e204A45EdF"},
		{ID: 4, Symbol: "USDC", Name: "USD-Coin", ExternalID: "usd-coin", OracleAddress: "0xA2F78ab2355fe2f984D808B5CeE7FD0A93D5270E"},
	}
}
