// Package oracle reads spot prices from Chainlink aggregator contracts
// through plain JSON-RPC eth_call. Both contract methods take no arguments,
// so the call data is just the 4-byte selector and the return data is a
// fixed sequence of 32-byte words.
package oracle

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"token-watch/config"
	"token-watch/httpclient"
)

// ErrUnavailable covers RPC transport failures, error responses from the
// node and malformed on-chain return data alike. The caller never retries,
// the next poll tick does.
var ErrUnavailable = pkgerrors.New("oracle unavailable")

const (
	selectorDecimals        = "0x313ce567" // decimals()
	selectorLatestRoundData = "0xfeaf968c" // latestRoundData()

	wordHexLen = 64
)

// PricePoint is one authoritative on-chain reading.
type PricePoint struct {
	Price     decimal.Decimal
	Decimals  uint8
	UpdatedAt time.Time
}

type Client struct {
	rpcURL string
	http   *httpclient.Client
}

func NewClient(rpcURL string, httpClient *httpclient.Client) *Client {
	return &Client{rpcURL: rpcURL, http: httpClient}
}

func (c *Client) Name() string {
	return "Chainlink"
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type callParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotPrice issues the two read-only contract calls and scales the raw
// answer down by the feed's decimals. Price = answer / 10^decimals, computed
// exactly.
func (c *Client) SpotPrice(token *config.TokenDescriptor) (*PricePoint, error) {
	decimalsWord, err := c.ethCall(token.OracleAddress, selectorDecimals)
	if err != nil {
		return nil, fmt.Errorf("%w: decimals() on %s: %w", ErrUnavailable, token.OracleAddress, err)
	}
	feedDecimals, err := parseDecimals(decimalsWord)
	if err != nil {
		return nil, fmt.Errorf("%w: decimals() on %s: %w", ErrUnavailable, token.OracleAddress, err)
	}

	roundWords, err := c.ethCall(token.OracleAddress, selectorLatestRoundData)
	if err != nil {
		return nil, fmt.Errorf("%w: latestRoundData() on %s: %w", ErrUnavailable, token.OracleAddress, err)
	}
	answer, updatedAt, err := parseLatestRoundData(roundWords)
	if err != nil {
		return nil, fmt.Errorf("%w: latestRoundData() on %s: %w", ErrUnavailable, token.OracleAddress, err)
	}

	price := decimal.NewFromBigInt(answer, -int32(feedDecimals))
	logrus.Debugf("%s feed %s answered %s (decimals %d)", token.Symbol, token.OracleAddress, price, feedDecimals)
	return &PricePoint{
		Price:     price,
		Decimals:  feedDecimals,
		UpdatedAt: updatedAt,
	}, nil
}

// ethCall runs a read-only call against the bound contract and returns the
// hex return data with the 0x prefix stripped.
func (c *Client) ethCall(contractAddress, data string) (string, error) {
	reqBody, err := json.Marshal(&rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_call",
		Params:  []interface{}{callParams{To: contractAddress, Data: data}, "latest"},
	})
	if err != nil {
		return "", err
	}

	respBytes, err := c.http.Post(c.rpcURL, reqBody)
	if err != nil {
		return "", err
	}

	var resp rpcResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return "", pkgerrors.Wrap(err, "decode JSON-RPC response")
	}
	if resp.Error != nil {
		return "", fmt.Errorf("JSON-RPC error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	result := strings.TrimPrefix(resp.Result, "0x")
	if result == "" {
		return "", pkgerrors.New("empty return data, is the oracle address a contract?")
	}
	return result, nil
}

func parseDecimals(returnData string) (uint8, error) {
	word, err := word(returnData, 0)
	if err != nil {
		return 0, err
	}
	if !word.IsUint64() || word.Uint64() > 255 {
		return 0, fmt.Errorf("decimals %s out of uint8 range", word)
	}
	return uint8(word.Uint64()), nil
}

// latestRoundData returns (roundId, answer, startedAt, updatedAt,
// answeredInRound); only answer and updatedAt matter here. answer is int256
// two's complement, a negative or zero reading is malformed for a price feed.
func parseLatestRoundData(returnData string) (*big.Int, time.Time, error) {
	answer, err := word(returnData, 1)
	if err != nil {
		return nil, time.Time{}, err
	}
	answer = fromTwosComplement(answer)
	if answer.Sign() <= 0 {
		return nil, time.Time{}, fmt.Errorf("non-positive answer %s", answer)
	}
	updatedAt, err := word(returnData, 3)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !updatedAt.IsInt64() {
		return nil, time.Time{}, fmt.Errorf("updatedAt %s out of range", updatedAt)
	}
	return answer, time.Unix(updatedAt.Int64(), 0), nil
}

func word(returnData string, index int) (*big.Int, error) {
	start := index * wordHexLen
	if len(returnData) < start+wordHexLen {
		return nil, fmt.Errorf("return data too short: %d hex chars, want word %d", len(returnData), index)
	}
	value, ok := new(big.Int).SetString(returnData[start:start+wordHexLen], 16)
	if !ok {
		return nil, fmt.Errorf("non-numeric word %q", returnData[start:start+wordHexLen])
	}
	return value, nil
}

var twoPow256 = new(big.Int).Lsh(big.NewInt(1), 256)

func fromTwosComplement(value *big.Int) *big.Int {
	if value.Bit(255) == 1 {
		return new(big.Int).Sub(value, twoPow256)
	}
	return value
}
