// Package marketdata reads aggregated market statistics and historical
// price series from a CoinGecko-compatible REST API. Responses are keyed by
// the token's external id, which is only known at runtime, hence jsonparser
// instead of struct tags.
package marketdata

import (
	"fmt"
	"time"

	"github.com/buger/jsonparser"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"token-watch/config"
	"token-watch/httpclient"
)

// ErrUnavailable covers network failures, non-2xx statuses and responses
// missing the requested external id (token delisted or renamed upstream).
var ErrUnavailable = pkgerrors.New("market data unavailable")

// Period selects the historical window the API exposes.
type Period string

const (
	Hourly Period = "hourly" // last day of samples
	Weekly Period = "weekly" // last 7 days
)

// ParsePeriod maps the CLI spelling onto a Period.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case Hourly, Weekly:
		return Period(raw), nil
	}
	return "", fmt.Errorf("unknown period %q, expecting %q or %q", raw, Hourly, Weekly)
}

func (p Period) days() string {
	if p == Weekly {
		return "7"
	}
	return "1"
}

// Stats is the off-chain half of a token snapshot.
type Stats struct {
	MarketCapUSD decimal.Decimal
	Volume24hUSD decimal.Decimal
	Change24hPct decimal.Decimal
	AsOf         time.Time
}

// Point is one sample of a historical price series.
type Point struct {
	Time  time.Time
	Price float64
}

type Client struct {
	baseURL string
	http    *httpclient.Client
}

func NewClient(baseURL string, httpClient *httpclient.Client) *Client {
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) Name() string {
	return "CoinGecko"
}

// MarketStats fetches market cap, 24h volume and 24h change for one token.
func (c *Client) MarketStats(token *config.TokenDescriptor) (*Stats, error) {
	respBytes, err := c.http.Get(c.baseURL+"/simple/price", map[string]string{
		"ids":                     token.ExternalID,
		"vs_currencies":           "usd",
		"include_market_cap":      "true",
		"include_24hr_vol":        "true",
		"include_24hr_change":     "true",
		"include_last_updated_at": "true",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: stats for %s: %w", ErrUnavailable, token.ExternalID, err)
	}

	// The response is keyed by the id we asked for; a missing key means the
	// token is gone upstream, not that the request failed.
	if _, dataType, _, err := jsonparser.Get(respBytes, token.ExternalID); err != nil || dataType != jsonparser.Object {
		return nil, fmt.Errorf("%w: id %q missing in response", ErrUnavailable, token.ExternalID)
	}

	marketCap, err := floatField(respBytes, token.ExternalID, "usd_market_cap")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	volume, err := floatField(respBytes, token.ExternalID, "usd_24h_vol")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	change, err := floatField(respBytes, token.ExternalID, "usd_24h_change")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	lastUpdated, err := jsonparser.GetInt(respBytes, token.ExternalID, "last_updated_at")
	if err != nil {
		return nil, fmt.Errorf("%w: field last_updated_at of %q: %w", ErrUnavailable, token.ExternalID, err)
	}

	return &Stats{
		MarketCapUSD: decimal.NewFromFloat(marketCap),
		Volume24hUSD: decimal.NewFromFloat(volume),
		Change24hPct: decimal.NewFromFloat(change),
		AsOf:         time.Unix(lastUpdated, 0),
	}, nil
}

// HistoricalSeries fetches the raw price series for the period. The API
// returns samples ascending by time; ordering is preserved as-is.
func (c *Client) HistoricalSeries(token *config.TokenDescriptor, period Period) ([]Point, error) {
	respBytes, err := c.http.Get(c.baseURL+"/coins/"+token.ExternalID+"/market_chart", map[string]string{
		"vs_currency": "usd",
		"days":        period.days(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s series for %s: %w", ErrUnavailable, period, token.ExternalID, err)
	}

	var (
		points   []Point
		parseErr error
	)
	_, err = jsonparser.ArrayEach(respBytes, func(pair []byte, dataType jsonparser.ValueType, offset int, _ error) {
		if parseErr != nil {
			return
		}
		timestampMs, err := jsonparser.GetInt(pair, "[0]")
		if err != nil {
			parseErr = pkgerrors.Wrap(err, "sample timestamp")
			return
		}
		price, err := jsonparser.GetFloat(pair, "[1]")
		if err != nil {
			parseErr = pkgerrors.Wrap(err, "sample price")
			return
		}
		points = append(points, Point{
			Time:  time.UnixMilli(timestampMs),
			Price: price,
		})
	}, "prices")
	if err != nil {
		return nil, fmt.Errorf("%w: no prices array for %s", ErrUnavailable, token.ExternalID)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, parseErr)
	}
	logrus.Debugf("%s %s series has %d samples", token.Symbol, period, len(points))
	return points, nil
}

func floatField(respBytes []byte, keys ...string) (float64, error) {
	value, err := jsonparser.GetFloat(respBytes, keys...)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "field %v", keys)
	}
	return value, nil
}
