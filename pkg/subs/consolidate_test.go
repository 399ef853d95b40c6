package subs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewkit/renewkit/pkg/subs"
)

func billableSub(modify ...func(*subs.UserSubscription)) subs.UserSubscription {
	end := time.Date(2022, time.July, 9, 0, 0, 0, 0, time.UTC)
	sub := subs.UserSubscription{
		SubscriptionID:   "abc",
		Marketplace:      subs.MarketplaceCanonicalUA,
		Period:           subs.PeriodMonthly,
		EndDate:          &end,
		Price:            2500,
		Currency:         "USD",
		NumberOfMachines: 1,
		ProductName:      "UA Applications - Standard (Physical)",
		Statuses: subs.Statuses{
			ShouldPresentAutoRenewal:   true,
			IsSubscriptionAutoRenewing: true,
		},
	}
	for _, fn := range modify {
		fn(&sub)
	}
	return sub
}

func TestConsolidate_ExclusionRules(t *testing.T) {
	t.Parallel()

	t.Run("ignores non-billable marketplaces", func(t *testing.T) {
		t.Parallel()
		consolidated := subs.Consolidate([]subs.UserSubscription{
			billableSub(func(s *subs.UserSubscription) { s.Marketplace = subs.MarketplaceFree }),
			billableSub(func(s *subs.UserSubscription) { s.Marketplace = subs.MarketplaceCanonicalCUBE }),
		})

		assert.Empty(t, consolidated)
	})

	t.Run("ignores records without an end date", func(t *testing.T) {
		t.Parallel()
		consolidated := subs.Consolidate([]subs.UserSubscription{
			billableSub(func(s *subs.UserSubscription) { s.EndDate = nil }),
		})

		assert.NotContains(t, consolidated, subs.MarketplaceCanonicalUA)
	})

	t.Run("ignores records not eligible for auto-renewal presentation", func(t *testing.T) {
		t.Parallel()
		consolidated := subs.Consolidate([]subs.UserSubscription{
			billableSub(func(s *subs.UserSubscription) { s.Statuses.ShouldPresentAutoRenewal = false }),
		})

		assert.NotContains(t, consolidated, subs.MarketplaceCanonicalUA)
	})

	t.Run("empty input yields empty mapping", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, subs.Consolidate(nil))
	})
}

func TestConsolidate_Aggregation(t *testing.T) {
	t.Parallel()

	consolidated := subs.Consolidate([]subs.UserSubscription{
		billableSub(func(s *subs.UserSubscription) {
			s.Period = subs.PeriodYearly
			s.Price = 250000
			s.NumberOfMachines = 5
			s.ProductName = "Product A"
		}),
		billableSub(func(s *subs.UserSubscription) {
			s.Period = subs.PeriodYearly
			s.Price = 1000000
			s.NumberOfMachines = 100
			s.ProductName = "Product B"
		}),
	})

	group := consolidated[subs.MarketplaceCanonicalUA]
	require.NotNil(t, group)
	require.NotNil(t, group.Yearly)
	assert.Nil(t, group.Monthly)

	assert.Equal(t, int64(1250000), group.Yearly.Total)
	assert.Equal(t, 2, group.Yearly.NUserSubs)
	assert.Equal(t, []string{"5x Product A", "100x Product B"}, group.Yearly.Products)
}

func TestConsolidate_LastWriteWins(t *testing.T) {
	t.Parallel()

	firstEnd := time.Date(2022, time.July, 9, 0, 0, 0, 0, time.UTC)
	secondEnd := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	consolidated := subs.Consolidate([]subs.UserSubscription{
		billableSub(func(s *subs.UserSubscription) {
			s.SubscriptionID = "first"
			s.EndDate = &firstEnd
			s.Currency = "USD"
			s.Statuses.IsSubscriptionAutoRenewing = true
		}),
		billableSub(func(s *subs.UserSubscription) {
			s.SubscriptionID = "second"
			s.EndDate = &secondEnd
			s.Currency = "EUR"
			s.Statuses.IsSubscriptionAutoRenewing = false
		}),
	})

	bundle := consolidated[subs.MarketplaceCanonicalUA].Monthly
	require.NotNil(t, bundle)

	assert.Equal(t, "second", bundle.ID)
	assert.False(t, bundle.Status)
	assert.Equal(t, secondEnd, bundle.When)
	assert.Equal(t, "EUR", bundle.Currency)
	assert.Equal(t, 2, bundle.NUserSubs)
}

func TestConsolidate_Idempotent(t *testing.T) {
	t.Parallel()

	records := []subs.UserSubscription{
		billableSub(),
		billableSub(func(s *subs.UserSubscription) {
			s.SubscriptionID = "def"
			s.Period = subs.PeriodYearly
		}),
	}

	first := subs.Consolidate(records)
	second := subs.Consolidate(records)

	assert.Equal(t, first, second)
}

func TestConsolidate_MixedPeriods(t *testing.T) {
	t.Parallel()

	consolidated := subs.Consolidate([]subs.UserSubscription{
		billableSub(func(s *subs.UserSubscription) {
			s.Price = 2500
			s.NumberOfMachines = 2
		}),
		billableSub(func(s *subs.UserSubscription) {
			s.SubscriptionID = "def"
			s.Period = subs.PeriodYearly
			s.Price = 10000
			s.NumberOfMachines = 3
		}),
	})

	group := consolidated[subs.MarketplaceCanonicalUA]
	require.NotNil(t, group)
	require.NotNil(t, group.Monthly)
	require.NotNil(t, group.Yearly)

	assert.Equal(t, int64(2500), group.Monthly.Total)
	assert.Equal(t, 1, group.Monthly.NUserSubs)
	assert.Equal(t, int64(10000), group.Yearly.Total)
	assert.Equal(t, 1, group.Yearly.NUserSubs)
}

func TestConsolidate_SingleRecord(t *testing.T) {
	t.Parallel()

	end := time.Date(2022, time.July, 9, 0, 0, 0, 0, time.UTC)
	consolidated := subs.Consolidate([]subs.UserSubscription{billableSub()})

	bundle := consolidated[subs.MarketplaceCanonicalUA].ByPeriod(subs.PeriodMonthly)
	require.NotNil(t, bundle)
	assert.Equal(t, "abc", bundle.ID)
	assert.Equal(t, 1, bundle.NUserSubs)
	assert.Equal(t, end, bundle.When)
	assert.True(t, bundle.Status)
}

func TestBillingSubscriptions_Clone(t *testing.T) {
	t.Parallel()

	consolidated := subs.Consolidate([]subs.UserSubscription{billableSub()})
	group := consolidated[subs.MarketplaceCanonicalUA]

	clone := group.Clone()
	require.NotNil(t, clone.Monthly)
	assert.Equal(t, group.Monthly, clone.Monthly)

	// The clone is fully detached: mutating it must not reach the original.
	clone.Monthly.Status = !clone.Monthly.Status
	clone.Monthly.Products[0] = "tampered"
	assert.NotEqual(t, clone.Monthly.Status, group.Monthly.Status)
	assert.NotEqual(t, "tampered", group.Monthly.Products[0])

	var nilGroup *subs.BillingSubscriptions
	assert.Nil(t, nilGroup.Clone())
	assert.Nil(t, group.Yearly.Clone())
}

func TestMarketplace_IsBillable(t *testing.T) {
	t.Parallel()

	assert.True(t, subs.MarketplaceCanonicalUA.IsBillable())
	assert.False(t, subs.MarketplaceFree.IsBillable())
	assert.False(t, subs.MarketplaceCanonicalCUBE.IsBillable())

	assert.Panics(t, func() {
		subs.Marketplace("unknown").IsBillable()
	})
}
