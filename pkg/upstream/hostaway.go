// Package upstream reads raw reviews from the Hostaway review feed.
package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/thistle/internal/tracing"
	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/httpclient"
)

const DefaultResultPath = "result"

type Config struct {
	BaseURL    string
	AccountID  string
	APIKey     string
	ResultPath string
	Timeout    time.Duration
}

// Source returns raw upstream review items
type Source interface {
	FetchReviews(ctx context.Context) ([]any, error)
}

type HostawayClient struct {
	config    Config
	http      *httpclient.Client
	extractor *Extractor
	logger    ectologger.Logger
}

func NewHostawayClient(config Config, http *httpclient.Client, extractor *Extractor, logger ectologger.Logger) *HostawayClient {
	return &HostawayClient{
		config:    config,
		http:      http,
		extractor: extractor,
		logger:    logger,
	}
}

// FetchReviews calls GET {base}/reviews. Every failure, including a body
// without a review array, is reported as an UpstreamUnavailableError.
func (c *HostawayClient) FetchReviews(ctx context.Context) ([]any, error) {
	ctx, span := tracing.StartSpan(ctx, "HostawayClient.FetchReviews")
	defer span.End()

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/reviews"
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if c.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.config.APIKey
	}

	resp, err := c.http.Get(ctx, endpoint, url.Values{"accountId": {c.config.AccountID}}, headers)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailableError("transport", errors.Wrap(err, "hostaway reviews request"))
	}

	if !httpclient.IsSuccessStatus(resp.StatusCode) {
		return nil, apperrors.NewUpstreamUnavailableError("status", fmt.Errorf("hostaway returned status %d", resp.StatusCode))
	}

	body, err := httpclient.ParseJSON(resp)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailableError("body", errors.Wrap(err, "hostaway reviews response"))
	}

	items, err := c.extractor.Extract(body)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailableError("shape", err)
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"count":       len(items),
		"duration_ms": resp.Duration.Milliseconds(),
	}).Info("fetched upstream reviews")
	return items, nil
}
