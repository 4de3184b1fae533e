// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package insights turns Azure Advisor recommendations into CloudZero
// insight records.
package insights

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cloudzero/azure-advisor-insights/azure"
	"github.com/cloudzero/azure-advisor-insights/cloudzero"
	"github.com/rs/zerolog/log"
)

// recommendationIDMarker tags the Advisor recommendation id inside an insight
// description. The dedup filter parses it back out, so the format is load-bearing.
const recommendationIDMarker = "Azure Advisor Recommendation ID:"

const (
	defaultEffort   = "medium"
	defaultCategory = "optimization"
	defaultStatus   = "new"

	savingsAmountProperty = "savingsAmount"
)

// Collapse groups recommendations that share a problem title into a single
// insight. Savings amounts are summed, descriptions are concatenated. The
// order of the result follows the first occurrence of each title.
func Collapse(recs []azure.Recommendation) []cloudzero.Insight {
	if len(recs) == 0 {
		log.Info().Msg("no azure advisor recommendations available to collapse")
		return nil
	}

	log.Info().Int("recommendations", len(recs)).Msg("collapsing azure advisor recommendations")

	titles := []string{}
	byTitle := map[string]*collapsed{}

	for i := range recs {
		rec := recs[i]
		if rec.Problem == "" {
			log.Warn().Str("recommendation", rec.Name).Msg("recommendation has no problem description, skipping")
			continue
		}

		entry, ok := byTitle[rec.Problem]
		if !ok {
			entry = &collapsed{}
			byTitle[rec.Problem] = entry
			titles = append(titles, rec.Problem)
		}
		entry.savings += savingsAmount(rec)
		entry.descriptions = append(entry.descriptions, describe(rec))
	}

	insights := make([]cloudzero.Insight, 0, len(titles))
	for _, title := range titles {
		entry := byTitle[title]
		insights = append(insights, cloudzero.Insight{
			Title:       title,
			CostImpact:  strconv.FormatFloat(entry.savings, 'f', -1, 64),
			Description: strings.Join(entry.descriptions, "\n\n---\n\n"),
			Effort:      defaultEffort,
			Category:    defaultCategory,
			Status:      defaultStatus,
			Source:      cloudzero.SourceAzureAdvisor,
		})
	}

	log.Info().Int("recommendations", len(recs)).Int("insights", len(insights)).
		Msg("collapsed azure advisor recommendations")
	return insights
}

type collapsed struct {
	savings      float64
	descriptions []string
}

// FilterSeen drops recommendations whose id already appears in an existing
// CloudZero insight, so re-runs do not create duplicate insights.
func FilterSeen(existing []cloudzero.Insight, recs []azure.Recommendation) []azure.Recommendation {
	if len(existing) == 0 {
		log.Info().Msg("no existing azure advisor cloudzero insights")
		return recs
	}

	seen := seenRecommendationIDs(existing)
	filtered := make([]azure.Recommendation, 0, len(recs))
	for i := range recs {
		if _, ok := seen[recs[i].Name]; ok {
			continue
		}
		filtered = append(filtered, recs[i])
	}

	log.Info().Int("before", len(recs)).Int("after", len(filtered)).
		Msg("filtered already transmitted recommendations")
	return filtered
}

func seenRecommendationIDs(existing []cloudzero.Insight) map[string]struct{} {
	ids := map[string]struct{}{}
	for i := range existing {
		for _, line := range strings.Split(existing[i].Description, "\n") {
			if !strings.Contains(line, recommendationIDMarker) {
				continue
			}
			_, id, found := strings.Cut(line, ": ")
			if found {
				ids[strings.TrimSpace(id)] = struct{}{}
			}
		}
	}
	return ids
}

// describe renders one recommendation as a description block. The first two
// lines identify the subscription and the recommendation, followed by the
// extended properties, or the short description if Advisor reported none.
func describe(rec azure.Recommendation) string {
	var sb strings.Builder
	sb.WriteString("Azure Subscription ID: ")
	sb.WriteString(rec.SubscriptionID)
	sb.WriteString("\n\n")
	sb.WriteString(recommendationIDMarker)
	sb.WriteString(" ")
	sb.WriteString(rec.Name)
	sb.WriteString("\n\n")

	if len(rec.ExtendedProperties) > 0 {
		keys := make([]string, 0, len(rec.ExtendedProperties))
		for k := range rec.ExtendedProperties {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+": "+rec.ExtendedProperties[k])
		}
		sb.WriteString(strings.Join(pairs, "\n\n"))
	} else {
		sb.WriteString("problem: " + rec.Problem + "\n\nsolution: " + rec.Solution)
	}

	return sb.String()
}

func savingsAmount(rec azure.Recommendation) float64 {
	raw, ok := rec.ExtendedProperties[savingsAmountProperty]
	if !ok {
		return 0
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn().Str("recommendation", rec.Name).Str(savingsAmountProperty, raw).
			Msg("could not parse savings amount")
		return 0
	}
	return amount
}
