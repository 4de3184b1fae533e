// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	subscriptions "github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/rs/zerolog/log"
)

type SubscriptionsClient struct {
	token azcore.TokenCredential
}

type SubscriptionsFilter struct {
	Exclude []string
	Include []string
}

func NewSubscriptionsClient(token azcore.TokenCredential) *SubscriptionsClient {
	return &SubscriptionsClient{
		token: token,
	}
}

// GetSubscriptions lists all subscriptions visible to the credential that
// pass the include/exclude filter.
func (client *SubscriptionsClient) GetSubscriptions(ctx context.Context, filter SubscriptionsFilter) ([]subscriptions.Subscription, error) {
	subscriptionsC, err := subscriptions.NewClient(client.token, &arm.ClientOptions{})
	if err != nil {
		return nil, err
	}

	subs := []subscriptions.Subscription{}
	res := subscriptionsC.NewListPager(&subscriptions.ClientListOptions{})
	for res.More() {
		page, err := res.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range page.Value {
			if s.SubscriptionID == nil {
				log.Debug().Msg("skipping subscription without id")
				continue
			}
			if skipSub(s, filter) {
				log.Debug().Str("subscription", *s.SubscriptionID).Msg("subscription filtered out")
				continue
			}
			subs = append(subs, *s)
		}
	}
	return subs, nil
}

// ListSubscriptionIDs is a convenience wrapper that only returns the ids
func (client *SubscriptionsClient) ListSubscriptionIDs(ctx context.Context, filter SubscriptionsFilter) ([]string, error) {
	subs, err := client.GetSubscriptions(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(subs))
	for i := range subs {
		if subs[i].SubscriptionID != nil {
			ids = append(ids, *subs[i].SubscriptionID)
		}
	}
	return ids, nil
}

func skipSub(sub *subscriptions.Subscription, filter SubscriptionsFilter) bool {
	if sub.SubscriptionID == nil {
		return true
	}

	// anything explicitly specified in the list of includes means accept only from that list
	if len(filter.Include) > 0 {
		for _, s := range filter.Include {
			if s == *sub.SubscriptionID {
				return false
			}
		}
		// didn't find it, so it must be skipped
		return true
	}

	// if nothing explicitly meant to be included, then check whether
	// it should be excluded
	if len(filter.Exclude) > 0 {
		for _, s := range filter.Exclude {
			if s == *sub.SubscriptionID {
				return true
			}
		}

		return false
	}
	return false
}
