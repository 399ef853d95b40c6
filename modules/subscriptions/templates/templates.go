// Package templates renders the subscription portal's server-side views.
// Components are plain templ components so they can be streamed to the
// Datastar runtime as element patches or rendered as a full page. Markup is
// deliberately minimal; styling lives with the consuming site.
package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// CardView is one subscription card on the list page.
type CardView struct {
	Title        string
	TypeLabel    string
	Machines     string
	Created      string
	Expires      string
	Entitlements []string
}

// ToggleView is one auto-renewal toggle in the renewal panel.
type ToggleView struct {
	BundleID string
	Checked  bool
	Headline string
	Products []string
	DateLine string
}

// NotificationView is a dismissable message inside the panel. Role doubles
// as the data-test hook so load and update failures stay addressable
// independently.
type NotificationView struct {
	Role     string
	Severity string
	Message  string
}

// PanelView is the full state of the renewal settings panel.
type PanelView struct {
	State         string
	Toggles       []ToggleView
	Notifications []NotificationView
}

func write(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func esc(s string) string { return html.EscapeString(s) }

// Page renders the full subscriptions page: page-level notifications, the
// card list and the renewal panel region.
func Page(cards []CardView, notes []NotificationView, panel PanelView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Your subscriptions</title></head><body><main data-test="subscriptions-page"><h1>Your subscriptions</h1>`); err != nil {
			return err
		}
		if err := notifications(notes).Render(ctx, w); err != nil {
			return err
		}
		if err := CardList(cards).Render(ctx, w); err != nil {
			return err
		}
		if err := RenewalPanel(panel).Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</main></body></html>`)
	})
}

// CardList renders the per-subscription cards.
func CardList(cards []CardView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<section id="subscription-list" data-test="subscription-list">`); err != nil {
			return err
		}
		for _, card := range cards {
			if err := Card(card).Render(ctx, w); err != nil {
				return err
			}
		}
		return write(w, `</section>`)
	})
}

// Card renders one subscription card.
func Card(card CardView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<article data-test="subscription-card"><h2>%s</h2><p data-test="card-type">%s</p>`,
			esc(card.Title), esc(card.TypeLabel)); err != nil {
			return err
		}
		if err := write(w, `<dl><dt>Machines</dt><dd data-test="card-machines">%s</dd><dt>Created</dt><dd data-test="card-created">%s</dd><dt>Expires</dt><dd data-test="card-expires">%s</dd></dl>`,
			esc(card.Machines), esc(card.Created), esc(card.Expires)); err != nil {
			return err
		}
		if len(card.Entitlements) > 0 {
			if err := write(w, `<ul data-test="card-entitlements">`); err != nil {
				return err
			}
			for _, label := range card.Entitlements {
				if err := write(w, `<li>%s</li>`, esc(label)); err != nil {
					return err
				}
			}
			if err := write(w, `</ul>`); err != nil {
				return err
			}
		}
		return write(w, `</article>`)
	})
}

// RenewalPanel renders the renewal settings panel for its current state. The
// element keeps a stable id so Datastar patches can morph it in place.
func RenewalPanel(panel PanelView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<section id="renewal-panel" data-test="renewal-settings" data-state="%s">`, esc(panel.State)); err != nil {
			return err
		}

		switch panel.State {
		case "closed":
			if err := write(w, `<button data-test="edit-button" data-on-click="@post('/subscriptions/renewal/open')">Edit renewal settings</button>`); err != nil {
				return err
			}
		case "loading":
			if err := write(w, `<p data-test="renewal-settings-loading">Loading&hellip;</p>`); err != nil {
				return err
			}
		default:
			if err := notifications(panel.Notifications).Render(ctx, w); err != nil {
				return err
			}
			if len(panel.Toggles) > 0 {
				if err := toggles(panel).Render(ctx, w); err != nil {
					return err
				}
			}
			if err := write(w, `<button data-test="cancel-button" data-on-click="@post('/subscriptions/renewal/close')">Cancel</button>`); err != nil {
				return err
			}
		}

		return write(w, `</section>`)
	})
}

func notifications(notes []NotificationView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, note := range notes {
			if err := write(w, `<div class="notification notification--%s" data-test="%s"><p>%s</p></div>`,
				esc(note.Severity), esc(note.Role), esc(note.Message)); err != nil {
				return err
			}
		}
		return nil
	})
}

func toggles(panel PanelView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, `<form data-test="renewal-toggles" data-on-submit="@post('/subscriptions/renewal', {contentType: 'form'})">`); err != nil {
			return err
		}
		for _, toggle := range panel.Toggles {
			checked := ""
			if toggle.Checked {
				checked = " checked"
			}
			if err := write(w, `<label><input type="checkbox" name="renew-%s" value="true"%s>%s</label>`,
				esc(toggle.BundleID), checked, esc(toggle.Headline)); err != nil {
				return err
			}
			if err := write(w, `<ul>`); err != nil {
				return err
			}
			for _, product := range toggle.Products {
				if err := write(w, `<li>%s</li>`, esc(product)); err != nil {
					return err
				}
			}
			if err := write(w, `</ul><p>%s</p>`, esc(toggle.DateLine)); err != nil {
				return err
			}
		}
		submitting := ""
		if panel.State == "submitting" {
			submitting = " disabled"
		}
		if err := write(w, `<button type="submit" data-test="save-button"%s>Save</button>`, submitting); err != nil {
			return err
		}
		return write(w, `</form>`)
	})
}
