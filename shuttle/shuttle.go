// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package shuttle runs the one-shot pull/transform/push cycle.
package shuttle

import (
	"context"

	"github.com/cloudzero/azure-advisor-insights/azure"
	"github.com/cloudzero/azure-advisor-insights/cli/reporter"
	"github.com/cloudzero/azure-advisor-insights/cloudzero"
	"github.com/cloudzero/azure-advisor-insights/insights"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// SubscriptionLister resolves the subscription ids the shuttle pulls from
type SubscriptionLister interface {
	ListSubscriptionIDs(ctx context.Context, filter azure.SubscriptionsFilter) ([]string, error)
}

// RecommendationSource pulls the cost recommendations of one subscription
type RecommendationSource interface {
	GetCostRecommendations(ctx context.Context, subscriptionID string) ([]azure.Recommendation, error)
}

// InsightsAPI is the part of the CloudZero API the shuttle needs
type InsightsAPI interface {
	ListInsights(ctx context.Context) ([]cloudzero.Insight, error)
	CreateInsight(ctx context.Context, insight cloudzero.Insight) (*cloudzero.Insight, error)
}

type Options struct {
	Transmit  bool
	ExportCSV bool
	OutputDir string
	Filter    azure.SubscriptionsFilter
}

type Summary struct {
	Subscriptions   int
	Recommendations int
	Created         int
	Failed          int
	CSVPath         string
}

type Shuttle struct {
	Subscriptions SubscriptionLister
	Advisor       RecommendationSource
	CloudZero     InsightsAPI
	Fs            afero.Fs
}

func New(subs SubscriptionLister, advisor RecommendationSource, cz InsightsAPI) *Shuttle {
	return &Shuttle{
		Subscriptions: subs,
		Advisor:       advisor,
		CloudZero:     cz,
		Fs:            afero.NewOsFs(),
	}
}

// Run performs one pull/transform/push cycle and returns what happened.
func (s *Shuttle) Run(ctx context.Context, opts Options) (*Summary, error) {
	if !opts.Transmit && !opts.ExportCSV {
		return nil, errors.New("nothing to do, enable transmit and/or csv export")
	}

	summary := &Summary{}

	log.Info().Msg("fetching azure subscriptions")
	subs, err := s.Subscriptions.ListSubscriptionIDs(ctx, opts.Filter)
	if err != nil {
		return nil, errors.Wrap(err, "could not list azure subscriptions")
	}
	summary.Subscriptions = len(subs)
	log.Info().Int("subscriptions", len(subs)).Msg("retrieved azure subscriptions")

	recs := s.pullRecommendations(ctx, subs)
	summary.Recommendations = len(recs)

	if opts.Transmit {
		if err := s.transmit(ctx, recs, summary); err != nil {
			return summary, err
		}
	}

	if opts.ExportCSV {
		path, err := reporter.WriteRecommendationsCSV(s.Fs, opts.OutputDir, recs)
		if err != nil {
			return summary, errors.Wrap(err, "could not export recommendations to csv")
		}
		summary.CSVPath = path
	}

	return summary, nil
}

// pullRecommendations collects the cost recommendations of all subscriptions.
// A failing subscription is logged and skipped so one revoked subscription
// does not abort the whole run.
func (s *Shuttle) pullRecommendations(ctx context.Context, subscriptionIDs []string) []azure.Recommendation {
	recs := []azure.Recommendation{}
	for _, id := range subscriptionIDs {
		subRecs, err := s.Advisor.GetCostRecommendations(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("subscription", id).
				Msg("failed to fetch advisor cost recommendations for subscription")
			continue
		}
		log.Info().Str("subscription", id).Int("recommendations", len(subRecs)).
			Msg("retrieved advisor cost recommendations")
		recs = append(recs, subRecs...)
	}
	return recs
}

func (s *Shuttle) transmit(ctx context.Context, recs []azure.Recommendation, summary *Summary) error {
	log.Info().Msg("fetching existing cloudzero azure advisor insights")
	existing, err := s.CloudZero.ListInsights(ctx)
	if err != nil {
		return errors.Wrap(err, "could not list existing cloudzero insights")
	}

	filtered := insights.FilterSeen(existing, recs)
	collapsed := insights.Collapse(filtered)

	for i := range collapsed {
		created, err := s.CloudZero.CreateInsight(ctx, collapsed[i])
		if err != nil {
			log.Error().Err(err).Str("title", collapsed[i].Title).Msg("insight not transmitted")
			summary.Failed++
			continue
		}
		log.Info().Str("title", created.Title).Msg("insight transmitted to cloudzero")
		summary.Created++
	}

	log.Info().Int("created", summary.Created).Int("total", summary.Created+summary.Failed).
		Msg("insights transmitted to cloudzero")

	if summary.Failed > 0 && summary.Created == 0 {
		return errors.New("all insights failed to transmit")
	}
	return nil
}
