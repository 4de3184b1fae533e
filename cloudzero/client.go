// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cloudzero

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cloudzero/azure-advisor-insights/logger"
	"github.com/cloudzero/azure-advisor-insights/logger/zerologadapter"
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	insightsPath = "/v2/insights"

	// SourceAzureAdvisor marks insights created from Azure Advisor recommendations
	SourceAzureAdvisor = "Azure Advisor"

	defaultHTTPTimeout         = 30 * time.Second
	defaultIdleConnTimeout     = 90 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
)

// Insight is the CloudZero insight record as accepted by the ingestion API.
// CostImpact stays a string on the wire.
type Insight struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	CostImpact  string `json:"cost_impact,omitempty"`
	Description string `json:"description"`
	Effort      string `json:"effort,omitempty"`
	Category    string `json:"category,omitempty"`
	Status      string `json:"status,omitempty"`
	Source      string `json:"source,omitempty"`
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient returns a CloudZero API client with retries enabled
func NewClient(endpoint, apiKey string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = zerologadapter.New(log.Logger)
	retryClient.HTTPClient = &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   defaultHTTPTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: defaultHTTPTimeout,
	}

	// dump full requests when tracing
	if zerolog.GlobalLevel() <= zerolog.TraceLevel {
		logger.AttachLoggingTransport(retryClient.HTTPClient)
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     retryClient.StandardClient(),
	}
}

type listInsightsResponse struct {
	Insights   []Insight  `json:"insights"`
	Pagination pagination `json:"pagination"`
}

type pagination struct {
	HasNext bool   `json:"has_next"`
	Cursor  cursor `json:"cursor"`
}

type cursor struct {
	NextCursor string `json:"next_cursor"`
}

type createInsightResponse struct {
	Insight Insight `json:"insight"`
}

// ListInsights fetches all existing Azure Advisor insights, following the
// cursor until the API reports no further pages.
func (c *Client) ListInsights(ctx context.Context) ([]Insight, error) {
	insights := []Insight{}
	nextCursor := ""

	for {
		query := url.Values{}
		query.Set("source", SourceAzureAdvisor)
		if nextCursor != "" {
			query.Set("cursor", nextCursor)
		}

		var page listInsightsResponse
		if err := c.get(ctx, insightsPath+"?"+query.Encode(), &page); err != nil {
			return nil, err
		}
		insights = append(insights, page.Insights...)
		log.Debug().Int("count", len(page.Insights)).Msg("retrieved a page of cloudzero insights")

		if !page.Pagination.HasNext {
			break
		}
		// a next page without a fresh cursor would re-request the same URL forever
		next := page.Pagination.Cursor.NextCursor
		if next == "" || next == nextCursor {
			return nil, errors.Newf("cloudzero api reported another page but returned no usable cursor (cursor %q)", next)
		}
		nextCursor = next
	}

	return insights, nil
}

// CreateInsight posts a single insight to the ingestion API and returns the
// record the API stored.
func (c *Client) CreateInsight(ctx context.Context, insight Insight) (*Insight, error) {
	payload, err := json.Marshal(insight)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode insight")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+insightsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	var created createInsightResponse
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	return &created.Insight, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "cloudzero api request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response JSON")
	}
	return nil
}
