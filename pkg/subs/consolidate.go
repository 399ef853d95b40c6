package subs

import (
	"fmt"
	"slices"
	"time"
)

// BillingSubscription is the consolidated renewal unit for one marketplace
// and billing period. It groups every qualifying raw record of that pair.
//
// The scalar fields ID, Status, When and Currency carry the values of the
// last record folded into the group. Downstream code, including the renewal
// form, depends on this last-write-wins behaviour, so the fold must not be
// "fixed" to first-write or majority semantics. See the open question on
// input ordering in DESIGN.md.
type BillingSubscription struct {
	ID        string    // subscription id of the last folded record
	NUserSubs int       // number of records folded in
	Products  []string  // "{machines}x {product}" lines, in input order
	Total     int64     // sum of Price over folded records, minor units
	Status    bool      // auto-renewing flag of the last folded record
	When      time.Time // end date of the last folded record
	Currency  string    // currency of the last folded record
}

// Clone returns a deep copy of the bundle, or nil for a nil receiver.
func (b *BillingSubscription) Clone() *BillingSubscription {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Products = slices.Clone(b.Products)
	return &clone
}

// BillingSubscriptions holds the per-period bundles of one marketplace.
// A nil field means no qualifying record exists for that period.
type BillingSubscriptions struct {
	Monthly *BillingSubscription
	Yearly  *BillingSubscription
}

// Clone returns a deep copy of the group, or nil for a nil receiver.
func (g *BillingSubscriptions) Clone() *BillingSubscriptions {
	if g == nil {
		return nil
	}
	return &BillingSubscriptions{
		Monthly: g.Monthly.Clone(),
		Yearly:  g.Yearly.Clone(),
	}
}

// ByPeriod returns the bundle for the given period, or nil.
func (g *BillingSubscriptions) ByPeriod(p Period) *BillingSubscription {
	if g == nil {
		return nil
	}
	return *g.slot(p)
}

func (g *BillingSubscriptions) slot(p Period) **BillingSubscription {
	switch p {
	case PeriodMonthly:
		return &g.Monthly
	case PeriodYearly:
		return &g.Yearly
	default:
		panic(fmt.Sprintf("subs: unknown billing period %q", p))
	}
}

// Consolidate folds raw subscription records into billing subscriptions
// keyed by marketplace. Records are skipped when their marketplace is not
// billable, their end date is absent, or the backend flagged them as not
// eligible for auto-renewal presentation. Marketplaces and periods with no
// qualifying record produce no entry at all, so callers must check for
// presence.
//
// The function is pure: it never mutates its input and consolidating the
// same records twice yields structurally identical output. Input order is
// preserved both in the Products lists and in the last-write-wins scalar
// fields.
func Consolidate(records []UserSubscription) map[Marketplace]*BillingSubscriptions {
	consolidated := make(map[Marketplace]*BillingSubscriptions)

	for _, sub := range records {
		if !sub.Marketplace.IsBillable() {
			continue
		}
		if sub.EndDate == nil {
			continue
		}
		if !sub.Statuses.ShouldPresentAutoRenewal {
			continue
		}

		group, ok := consolidated[sub.Marketplace]
		if !ok {
			group = &BillingSubscriptions{}
			consolidated[sub.Marketplace] = group
		}

		slot := group.slot(sub.Period)
		if *slot == nil {
			*slot = &BillingSubscription{}
		}

		bundle := *slot
		bundle.NUserSubs++
		bundle.Products = append(bundle.Products,
			fmt.Sprintf("%dx %s", sub.NumberOfMachines, sub.ProductName))
		bundle.Total += sub.Price

		// Later records overwrite the scalar fields.
		bundle.ID = sub.SubscriptionID
		bundle.Status = sub.Statuses.IsSubscriptionAutoRenewing
		bundle.When = *sub.EndDate
		bundle.Currency = sub.Currency
	}

	return consolidated
}
