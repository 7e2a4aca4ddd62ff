// Package httpclient is the single egress point for both upstreams: the
// JSON-RPC oracle endpoint and the market data REST API share one
// *http.Client, so the timeout and proxy settings apply uniformly.
package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrTimeout marks a request that exceeded the configured deadline. It is
// kept in the error chain next to the per-source kind, so callers can match
// either with errors.Is.
var ErrTimeout = pkgerrors.New("request timed out")

const userAgent = "Mozilla/5.0 (compatible; token-watch)"

type Client struct {
	StdClient *http.Client
}

// New builds a client with a bounded per-request timeout. A zero timeout
// means no deadline, which is only sensible in tests.
func New(timeout time.Duration, rawProxyURL string) *Client {
	stdClient := &http.Client{Timeout: timeout}
	if timeout != 0 {
		logrus.Debugf("HTTP request timeout is set to %s", timeout)
	}

	if rawProxyURL != "" {
		proxyURL, err := url.Parse(rawProxyURL)
		if err != nil {
			logrus.Warnf("Failed to parse proxy URL: %s, error: %v, using system proxy", rawProxyURL, err)
		} else {
			stdClient.Transport = &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			}
			logrus.Debugf("Using proxy %s", rawProxyURL)
		}
	}
	return &Client{stdClient}
}

func (c *Client) Get(rawURL string, params map[string]string) ([]byte, error) {
	if params != nil {
		parsedURL, err := url.Parse(rawURL)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "parse url %s", rawURL)
		}
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		parsedURL.RawQuery = query.Encode()
		rawURL = parsedURL.String()
	}

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Add("Cache-Control", "no-store")
	req.Header.Add("Cache-Control", "must-revalidate")
	return c.do(req)
}

// Post sends a JSON body, used for JSON-RPC calls against the oracle node.
func (c *Client) Post(rawURL string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.StdClient.Do(req)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		// Most non-200 responses have valid json body
		return respBytes, &ResponseError{resp.Status, respBytes}
	}
	return respBytes, nil
}

type ResponseError struct {
	Status string
	Body   []byte
}

func (e *ResponseError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return "HTTP " + e.Status + ", body " + string(body)
}
