// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package reporter writes Azure Advisor recommendations to local files.
package reporter

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"sort"

	"github.com/cloudzero/azure-advisor-insights/azure"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ExportFileName is the well-known name of the CSV export
const ExportFileName = "azure_advisor_recommendations.csv"

var baseColumns = []string{"id", "subscription_id", "recommendation_id", "short_description"}

// WriteRecommendationsCSV writes the raw recommendations to
// <dir>/azure_advisor_recommendations.csv, creating the directory if needed.
// It returns the path of the written file.
func WriteRecommendationsCSV(fs afero.Fs, dir string, recs []azure.Recommendation) (string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "could not create output directory")
	}

	path := filepath.Join(dir, ExportFileName)
	f, err := fs.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "could not create csv file")
	}
	defer f.Close()

	if err := ConvertToCSV(recs, f); err != nil {
		return "", err
	}

	log.Info().Str("path", path).Int("recommendations", len(recs)).Msg("exported recommendations")
	return path, nil
}

// ConvertToCSV writes one row per recommendation. The columns are the fixed
// identity columns plus the union of all extended property keys, sorted so
// the output is stable across runs.
func ConvertToCSV(recs []azure.Recommendation, out io.Writer) error {
	extKeys := extendedPropertyKeys(recs)

	w := csv.NewWriter(out)
	if err := w.Write(append(append([]string{}, baseColumns...), extKeys...)); err != nil {
		return err
	}

	for i := range recs {
		if err := w.Write(row(recs[i], extKeys)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func extendedPropertyKeys(recs []azure.Recommendation) []string {
	seen := map[string]struct{}{}
	for i := range recs {
		for k := range recs[i].ExtendedProperties {
			seen[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func row(rec azure.Recommendation, extKeys []string) []string {
	subscriptionID := rec.SubscriptionID
	if subscriptionID == "" {
		subscriptionID = azure.SubscriptionFromResourceID(rec.ID)
	}

	entry := []string{rec.ID, subscriptionID, rec.Name, rec.Solution}
	for _, k := range extKeys {
		entry = append(entry, rec.ExtendedProperties[k])
	}
	return entry
}
