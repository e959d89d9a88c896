package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/httpclient"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *HostawayClient {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	extractor, err := NewExtractor("result")
	require.NoError(t, err)
	return NewHostawayClient(Config{
		BaseURL:   baseURL,
		AccountID: "61148",
		APIKey:    "secret",
		Timeout:   timeout,
	}, httpclient.NewClient(httpclient.DefaultConfig(), logger), extractor, logger)
}

func TestFetchReviews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reviews", r.URL.Path)
		assert.Equal(t, "61148", r.URL.Query().Get("accountId"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","result":[{"id":7453},{"id":7454}]}`))
	}))
	defer server.Close()

	items, err := newTestClient(t, server.URL, time.Second).FetchReviews(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFetchReviewsFailures(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>maintenance</html>`))
			},
		},
		{
			name: "result missing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"fail"}`))
			},
		},
		{
			name: "result not an array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"result":{"id":1}}`))
			},
		},
		{
			name: "too slow",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			_, err := newTestClient(t, server.URL, 50*time.Millisecond).FetchReviews(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsUpstreamUnavailable(err))
		})
	}
}

func TestFetchReviewsUnreachable(t *testing.T) {
	_, err := newTestClient(t, "http://127.0.0.1:1", time.Second).FetchReviews(context.Background())
	assert.True(t, apperrors.IsUpstreamUnavailable(err))
}

func TestExtract(t *testing.T) {
	extractor, err := NewExtractor("")
	require.NoError(t, err)

	items, err := extractor.Extract([]any{map[string]any{"id": 1.0}})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = extractor.Extract(map[string]any{"result": []any{}})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = extractor.Extract("nope")
	assert.Error(t, err)

	_, err = NewExtractor("result[")
	assert.Error(t, err)
}
