package subs

import (
	"fmt"
	"time"
)

// Marketplace identifies the commercial channel a subscription originates
// from.
type Marketplace string

const (
	MarketplaceFree          Marketplace = "free"
	MarketplaceCanonicalUA   Marketplace = "canonical-ua"
	MarketplaceCanonicalCUBE Marketplace = "canonical-cube"
)

// IsBillable reports whether subscriptions from this marketplace are billed
// per subscription period and therefore participate in renewal
// consolidation. The switch is deliberately exhaustive: introducing a new
// marketplace must come with an explicit billing decision here rather than
// being silently included or excluded.
func (m Marketplace) IsBillable() bool {
	switch m {
	case MarketplaceCanonicalUA:
		return true
	case MarketplaceFree, MarketplaceCanonicalCUBE:
		return false
	default:
		panic(fmt.Sprintf("subs: no billing decision for marketplace %q", m))
	}
}

// Period is the billing period of a subscription.
type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Valid reports whether p is a known billing period.
func (p Period) Valid() bool {
	return p == PeriodMonthly || p == PeriodYearly
}

// Statuses carries the backend-computed status flags of a subscription.
type Statuses struct {
	// ShouldPresentAutoRenewal gates the whole renewal UI for this record.
	// Records with the flag unset never reach consolidation.
	ShouldPresentAutoRenewal bool `json:"should_present_auto_renewal"`
	// IsSubscriptionAutoRenewing is the current auto-renewal preference.
	IsSubscriptionAutoRenewing bool `json:"is_subscription_auto_renewing"`
}

// UserSubscription is a single raw subscription record as returned by the
// backend contracts API. Records are treated as immutable.
type UserSubscription struct {
	SubscriptionID   string        `json:"subscription_id"`
	Marketplace      Marketplace   `json:"marketplace"`
	Period           Period        `json:"period"`
	StartDate        *time.Time    `json:"start_date"`
	EndDate          *time.Time    `json:"end_date"` // nil means non-renewing or perpetual
	Price            int64         `json:"price"`    // minor currency units
	Currency         string        `json:"currency"` // ISO 4217 code
	NumberOfMachines int           `json:"number_of_machines"`
	ProductName      string        `json:"product_name"`
	Entitlements     []Entitlement `json:"entitlements"`
	Statuses         Statuses      `json:"statuses"`
}

// IsFree reports whether the record is a free personal token.
func (s *UserSubscription) IsFree() bool {
	return s.Marketplace == MarketplaceFree
}
