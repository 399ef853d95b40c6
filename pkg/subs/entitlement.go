package subs

// EntitlementType identifies a capability attached to a subscription.
type EntitlementType string

const (
	EntitlementLivepatch EntitlementType = "livepatch"
	EntitlementSupport   EntitlementType = "support"
	EntitlementESMInfra  EntitlementType = "esm-infra"
	EntitlementESMApps   EntitlementType = "esm-apps"
	EntitlementFIPS      EntitlementType = "fips"
	EntitlementCIS       EntitlementType = "cis"
	EntitlementCCEAL     EntitlementType = "cc-eal"
)

// SupportLevel is the tier of a support entitlement.
type SupportLevel string

const (
	SupportLevelEssential SupportLevel = "essential"
	SupportLevelStandard  SupportLevel = "standard"
	SupportLevelAdvanced  SupportLevel = "advanced"
)

// Entitlement is a single capability included in a subscription, as reported
// by the backend.
type Entitlement struct {
	Type         EntitlementType `json:"type"`
	SupportLevel SupportLevel    `json:"support_level,omitempty"`
	Enabled      bool            `json:"enabled_by_default"`
}

// Label returns the display name for the entitlement. Support entitlements
// are labelled by their coverage window rather than the raw type.
func (e Entitlement) Label() string {
	switch e.Type {
	case EntitlementLivepatch:
		return "Livepatch"
	case EntitlementSupport:
		switch e.SupportLevel {
		case SupportLevelAdvanced:
			return "24/7 Support"
		case SupportLevelStandard:
			return "24/5 Support"
		default:
			return "Support"
		}
	case EntitlementESMInfra:
		return "ESM Infra"
	case EntitlementESMApps:
		return "ESM Apps"
	case EntitlementFIPS:
		return "FIPS"
	case EntitlementCIS:
		return "CIS"
	case EntitlementCCEAL:
		return "CC-EAL"
	default:
		return string(e.Type)
	}
}
