package handler

import (
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

// Patch mode aliases so handlers don't import datastar directly.
const (
	PatchOuter   = datastar.ElementPatchModeOuter   // morph element (default)
	PatchInner   = datastar.ElementPatchModeInner   // replace inner HTML
	PatchReplace = datastar.ElementPatchModeReplace // replace entire element
	PatchRemove  = datastar.ElementPatchModeRemove  // remove element
	PatchAppend  = datastar.ElementPatchModeAppend  // append inside element
	PatchPrepend = datastar.ElementPatchModePrepend // prepend inside element
)

// IsDataStar reports whether the request came from the Datastar runtime and
// expects an SSE patch stream rather than a full HTML document.
func IsDataStar(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	if r.URL.Query().Has("datastar") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/x-datastar")
}
