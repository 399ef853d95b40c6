// Package notify defines the portal's notification primitive: a message
// with a semantic role. Roles double as stable test identifiers so that
// automated tests and the frontend can address a specific failure class,
// e.g. telling a failed subscriptions load apart from a failed settings
// update.
package notify

// Role classifies what a notification is about. Role values are rendered as
// data-test attributes and must stay stable.
type Role string

const (
	// RoleLoadError marks a failure to load the subscription list.
	RoleLoadError Role = "subscriptions-loading-error"
	// RoleUpdateError marks a failed auto-renewal settings update,
	// whether the failure was transport-level or reported in-band.
	RoleUpdateError Role = "update-error"
)

// Severity drives the visual treatment of a notification.
type Severity string

const (
	SeverityNegative Severity = "negative"
	SeverityCaution  Severity = "caution"
)

// Notification is a single user-facing message. Notifications carrying an
// error role are persistent: they stay visible until the state that caused
// them is reset.
type Notification struct {
	Role     Role
	Severity Severity
	Message  string
}

// Error builds a persistent negative notification for the given role.
func Error(role Role, message string) Notification {
	return Notification{Role: role, Severity: SeverityNegative, Message: message}
}
