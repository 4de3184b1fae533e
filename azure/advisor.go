// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"context"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/advisor/armadvisor"
)

// costFilter limits the Advisor pull to cost recommendations
const costFilter = "Category eq 'Cost'"

// Recommendation is the flattened view of an Azure Advisor recommendation
// that the transform and export layers work with.
type Recommendation struct {
	// full ARM resource id of the recommendation
	ID string
	// recommendation id, unique per subscription
	Name           string
	SubscriptionID string
	Category       string
	Impact         string
	ImpactedField  string
	ImpactedValue  string
	// short description of the detected problem and the suggested solution
	Problem  string
	Solution string
	// savingsAmount, annualSavingsAmount, region etc. as reported by Advisor
	ExtendedProperties map[string]string
	LastUpdated        time.Time
}

type AdvisorClient struct {
	token azcore.TokenCredential
}

func NewAdvisorClient(token azcore.TokenCredential) *AdvisorClient {
	return &AdvisorClient{
		token: token,
	}
}

// GetCostRecommendations pages through all cost recommendations of one subscription.
func (client *AdvisorClient) GetCostRecommendations(ctx context.Context, subscriptionID string) ([]Recommendation, error) {
	recommendationsC, err := armadvisor.NewRecommendationsClient(subscriptionID, client.token, &arm.ClientOptions{})
	if err != nil {
		return nil, err
	}

	recs := []Recommendation{}
	pager := recommendationsC.NewListPager(&armadvisor.RecommendationsClientListOptions{
		Filter: to.Ptr(costFilter),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range page.Value {
			recs = append(recs, convertRecommendation(subscriptionID, rec))
		}
	}
	return recs, nil
}

func convertRecommendation(subscriptionID string, rec *armadvisor.ResourceRecommendationBase) Recommendation {
	res := Recommendation{
		ID:             toString(rec.ID),
		Name:           toString(rec.Name),
		SubscriptionID: subscriptionID,
	}
	if res.SubscriptionID == "" {
		res.SubscriptionID = SubscriptionFromResourceID(res.ID)
	}

	props := rec.Properties
	if props == nil {
		return res
	}

	if props.Category != nil {
		res.Category = string(*props.Category)
	}
	if props.Impact != nil {
		res.Impact = string(*props.Impact)
	}
	res.ImpactedField = toString(props.ImpactedField)
	res.ImpactedValue = toString(props.ImpactedValue)
	if props.ShortDescription != nil {
		res.Problem = toString(props.ShortDescription.Problem)
		res.Solution = toString(props.ShortDescription.Solution)
	}
	if props.LastUpdated != nil {
		res.LastUpdated = *props.LastUpdated
	}
	if len(props.ExtendedProperties) > 0 {
		res.ExtendedProperties = make(map[string]string, len(props.ExtendedProperties))
		for k, v := range props.ExtendedProperties {
			res.ExtendedProperties[k] = toString(v)
		}
	}
	return res
}

// SubscriptionFromResourceID extracts the subscription id from an ARM resource
// id of the form /subscriptions/<id>/...
func SubscriptionFromResourceID(id string) string {
	parts := strings.Split(id, "/")
	if len(parts) > 2 && parts[1] == "subscriptions" {
		return parts[2]
	}
	return ""
}

func toString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
