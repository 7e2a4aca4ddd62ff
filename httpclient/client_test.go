package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	t.Run("EncodesQueryParams", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("ids"); got != "usd-coin" {
				t.Errorf("Got ids=%q, want usd-coin", got)
			}
			fmt.Fprint(w, `{}`)
		}))
		defer server.Close()

		if _, err := New(0, "").Get(server.URL, map[string]string{"ids": "usd-coin"}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	})

	t.Run("BadStatusIsResponseError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := New(0, "").Get(server.URL, nil)
		var respErr *ResponseError
		if !errors.As(err, &respErr) {
			t.Fatalf("Got %v, want a ResponseError", err)
		}
	})

	t.Run("DeadlineExceededIsTimeoutKind", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		_, err := New(20*time.Millisecond, "").Get(server.URL, nil)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("Got %v, want ErrTimeout in the chain", err)
		}
	})
}

func TestPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Got content type %q", got)
		}
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":"0x"}`)
	}))
	defer server.Close()

	body, err := New(0, "").Post(server.URL, []byte(`{"jsonrpc":"2.0"}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(body) == 0 {
		t.Fatalf("Expecting a response body")
	}
}
