package subscriptions

import (
	"fmt"

	"github.com/renewkit/renewkit/modules/subscriptions/templates"
	"github.com/renewkit/renewkit/pkg/format"
	"github.com/renewkit/renewkit/pkg/notify"
	"github.com/renewkit/renewkit/pkg/subs"
	"github.com/renewkit/renewkit/svc/renewal"
)

const freeTokenTitle = "Free Personal Token"

func marketplaceLabel(m subs.Marketplace) string {
	switch m {
	case subs.MarketplaceFree:
		return "Free"
	case subs.MarketplaceCanonicalUA:
		return "Ubuntu Advantage"
	case subs.MarketplaceCanonicalCUBE:
		return "CUBE"
	default:
		return string(m)
	}
}

// buildCards maps raw subscription records to list cards in input order.
func buildCards(records []subs.UserSubscription) []templates.CardView {
	cards := make([]templates.CardView, 0, len(records))
	for _, record := range records {
		card := templates.CardView{
			Title:     record.ProductName,
			TypeLabel: marketplaceLabel(record.Marketplace),
			Machines:  format.Pluralize(record.NumberOfMachines, "machine"),
			Created:   "",
			Expires:   "Never",
		}
		if record.IsFree() {
			card.Title = freeTokenTitle
		}
		if record.StartDate != nil {
			card.Created = format.CardDate(*record.StartDate)
		}
		if record.EndDate != nil {
			card.Expires = format.CardDate(*record.EndDate)
		}
		for _, entitlement := range record.Entitlements {
			card.Entitlements = append(card.Entitlements, entitlement.Label())
		}
		cards = append(cards, card)
	}
	return cards
}

// marketplaceOrder fixes the rendering order of consolidated groups; map
// iteration order would make the panel jump between renders.
var marketplaceOrder = []subs.Marketplace{
	subs.MarketplaceCanonicalUA,
	subs.MarketplaceCanonicalCUBE,
}

// buildPanel snapshots a controller into its view. Yearly bundles render
// before monthly ones within each marketplace.
func buildPanel(ctrl *renewal.Controller) templates.PanelView {
	panel := templates.PanelView{
		State:         string(ctrl.State()),
		Notifications: notificationViews(ctrl.Notifications()),
	}

	bundles := ctrl.Bundles()
	edits := ctrl.Edits()
	for _, marketplace := range marketplaceOrder {
		group, ok := bundles[marketplace]
		if !ok {
			continue
		}
		for _, period := range []subs.Period{subs.PeriodYearly, subs.PeriodMonthly} {
			bundle := group.ByPeriod(period)
			if bundle == nil {
				continue
			}
			panel.Toggles = append(panel.Toggles, templates.ToggleView{
				BundleID: bundle.ID,
				Checked:  edits[bundle.ID],
				Headline: toggleHeadline(period, bundle),
				Products: bundle.Products,
				DateLine: toggleDateLine(period, bundle),
			})
		}
	}
	return panel
}

func toggleHeadline(period subs.Period, bundle *subs.BillingSubscription) string {
	total := format.Money(bundle.Total, bundle.Currency)
	switch period {
	case subs.PeriodYearly:
		return fmt.Sprintf("Renew my %s for the next year for %s*",
			format.Pluralize(bundle.NUserSubs, "yearly subscription"), total)
	case subs.PeriodMonthly:
		return fmt.Sprintf("Automatically renew my %s every month for %s*",
			format.Pluralize(bundle.NUserSubs, "monthly subscription"), total)
	default:
		return ""
	}
}

func toggleDateLine(period subs.Period, bundle *subs.BillingSubscription) string {
	when := format.RenewalDate(bundle.When)
	if period == subs.PeriodMonthly {
		return fmt.Sprintf("The next renewal will be on %s.", when)
	}
	return fmt.Sprintf("The renewal will happen on %s.", when)
}

func notificationViews(notes []notify.Notification) []templates.NotificationView {
	views := make([]templates.NotificationView, 0, len(notes))
	for _, note := range notes {
		views = append(views, templates.NotificationView{
			Role:     string(note.Role),
			Severity: string(note.Severity),
			Message:  note.Message,
		})
	}
	return views
}
