// Package subs defines the user subscription model served by the backend
// contracts API and the consolidation logic that folds raw subscription
// records into per-marketplace, per-period billing subscriptions.
//
// Raw records are immutable snapshots fetched from the backend. Billing
// subscriptions are derived on every pass through Consolidate and are never
// persisted; they exist only for rendering renewal settings and collecting
// auto-renewal preferences.
package subs
