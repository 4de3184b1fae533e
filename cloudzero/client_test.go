// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cloudzero

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListInsightsPagination(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/v2/insights", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, SourceAzureAdvisor, r.URL.Query().Get("source"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			json.NewEncoder(w).Encode(listInsightsResponse{
				Insights:   []Insight{{ID: "in-1", Title: "first"}},
				Pagination: pagination{HasNext: true, Cursor: cursor{NextCursor: "page-2"}},
			})
		case "page-2":
			json.NewEncoder(w).Encode(listInsightsResponse{
				Insights: []Insight{{ID: "in-2", Title: "second"}},
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	insights, err := client.ListInsights(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	require.Len(t, insights, 2)
	assert.Equal(t, "in-1", insights[0].ID)
	assert.Equal(t, "in-2", insights[1].ID)
}

func TestListInsightsBrokenCursorDoesNotLoop(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listInsightsResponse{
			Insights:   []Insight{{ID: "in-1"}},
			Pagination: pagination{HasNext: true},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	_, err := client.ListInsights(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable cursor")
	assert.Equal(t, 1, requests)
}

func TestListInsightsRepeatedCursorDoesNotLoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listInsightsResponse{
			Pagination: pagination{HasNext: true, Cursor: cursor{NextCursor: "stuck"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	_, err := client.ListInsights(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable cursor")
}

func TestCreateInsight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/insights", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in Insight
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Shutdown idle virtual machines", in.Title)
		assert.Equal(t, "120.5", in.CostImpact)

		in.ID = "in-42"
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createInsightResponse{Insight: in})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	created, err := client.CreateInsight(context.Background(), Insight{
		Title:      "Shutdown idle virtual machines",
		CostImpact: "120.5",
		Category:   "optimization",
		Status:     "new",
		Source:     SourceAzureAdvisor,
	})
	require.NoError(t, err)
	assert.Equal(t, "in-42", created.ID)
	assert.Equal(t, "Shutdown idle virtual machines", created.Title)
}

func TestCreateInsightError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad insight"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	_, err := client.CreateInsight(context.Background(), Insight{Title: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
