package subscriptions_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewkit/renewkit/modules/subscriptions"
	"github.com/renewkit/renewkit/pkg/contracts"
	"github.com/renewkit/renewkit/pkg/queryclient"
	"github.com/renewkit/renewkit/pkg/subs"
)

type fakeAPI struct {
	mu           sync.Mutex
	records      []subs.UserSubscription
	fetchErr     error
	fetchCalls   int
	updateResult contracts.AutoRenewalResult
	updateErr    error
	lastSettings map[string]bool
}

func (f *fakeAPI) GetUserSubscriptions(ctx context.Context) ([]subs.UserSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

func (f *fakeAPI) SetAutoRenewal(ctx context.Context, settings map[string]bool) (contracts.AutoRenewalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSettings = settings
	return f.updateResult, f.updateErr
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func (f *fakeAPI) settings() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSettings
}

func date(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return &parsed
}

func yearlySub(t *testing.T, id, product string, price int64, machines int) subs.UserSubscription {
	t.Helper()
	return subs.UserSubscription{
		SubscriptionID:   id,
		Marketplace:      subs.MarketplaceCanonicalUA,
		Period:           subs.PeriodYearly,
		StartDate:        date(t, "2021-07-09"),
		EndDate:          date(t, "2022-07-09"),
		Price:            price,
		Currency:         "USD",
		NumberOfMachines: machines,
		ProductName:      product,
		Statuses: subs.Statuses{
			ShouldPresentAutoRenewal:   true,
			IsSubscriptionAutoRenewing: true,
		},
	}
}

func freeSub(t *testing.T) subs.UserSubscription {
	t.Helper()
	return subs.UserSubscription{
		SubscriptionID: "free-token",
		Marketplace:    subs.MarketplaceFree,
		StartDate:      date(t, "2021-03-01"),
		Entitlements: []subs.Entitlement{
			{Type: subs.EntitlementLivepatch},
			{Type: subs.EntitlementSupport, SupportLevel: subs.SupportLevelAdvanced},
		},
		Statuses: subs.Statuses{ShouldPresentAutoRenewal: false},
	}
}

func newPortal(t *testing.T, api *fakeAPI) http.Handler {
	t.Helper()
	queries := queryclient.New(queryclient.NewMemoryStore(64))
	svc := subscriptions.NewService(subscriptions.Config{
		SessionCapacity: 8,
		SessionTTL:      time.Minute,
	}, api, queries)

	r := chi.NewRouter()
	r.Mount("/subscriptions", svc.Handle())
	return r
}

func do(t *testing.T, h http.Handler, userID uuid.UUID, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("X-User-ID", userID.String())
	if form != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestListPage(t *testing.T) {
	t.Parallel()

	t.Run("renders cards for every record", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{records: []subs.UserSubscription{
			yearlySub(t, "sub-a", "UA Infra", 250000, 2),
			freeSub(t),
		}}
		portal := newPortal(t, api)

		rec := do(t, portal, uuid.New(), http.MethodGet, "/subscriptions/", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, "UA Infra")
		assert.Contains(t, body, "Free Personal Token")
		assert.Contains(t, body, "09.07.2021")
		assert.Contains(t, body, "Never")
		assert.Contains(t, body, "Livepatch")
		assert.Contains(t, body, "24/7 Support")
		assert.Contains(t, body, "2 machines")
	})

	t.Run("load failure surfaces a notification", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{fetchErr: errors.New("backend down")}
		portal := newPortal(t, api)

		rec := do(t, portal, uuid.New(), http.MethodGet, "/subscriptions/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `data-test="subscriptions-loading-error"`)
	})

	t.Run("second read hits the cache", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{records: []subs.UserSubscription{yearlySub(t, "sub-a", "UA Infra", 250000, 2)}}
		portal := newPortal(t, api)
		userID := uuid.New()

		do(t, portal, userID, http.MethodGet, "/subscriptions/", nil)
		do(t, portal, userID, http.MethodGet, "/subscriptions/", nil)

		assert.Equal(t, 1, api.calls())
	})

	t.Run("rejects request without user id", func(t *testing.T) {
		t.Parallel()

		portal := newPortal(t, &fakeAPI{})
		rec := httptest.NewRecorder()
		portal.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscriptions/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRenewalPanel(t *testing.T) {
	t.Parallel()

	records := func(t *testing.T) []subs.UserSubscription {
		t.Helper()
		return []subs.UserSubscription{
			yearlySub(t, "sub-a", "UA Infra", 250000, 2),
			yearlySub(t, "sub-b", "UA Apps", 1000000, 5),
			freeSub(t),
		}
	}

	t.Run("open renders consolidated toggles", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{records: records(t)}
		portal := newPortal(t, api)
		userID := uuid.New()

		rec := do(t, portal, userID, http.MethodPost, "/subscriptions/renewal/open", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `data-state="loaded"`)
		assert.Contains(t, body, `data-test="renewal-toggles"`)
		assert.Contains(t, body, "Renew my 2 yearly subscriptions for the next year for $12,500.00*")
		assert.Contains(t, body, "The renewal will happen on 9 July 2022.")
		assert.Contains(t, body, "2x UA Infra")
		assert.Contains(t, body, "5x UA Apps")
		assert.Contains(t, body, `name="renew-sub-b"`)
		assert.Contains(t, body, "checked")
		assert.Contains(t, body, `data-test="cancel-button"`)
		assert.NotContains(t, body, "Free Personal Token")
	})

	t.Run("open after a load failure shows the load error", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{fetchErr: errors.New("backend down")}
		portal := newPortal(t, api)

		rec := do(t, portal, uuid.New(), http.MethodPost, "/subscriptions/renewal/open", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `data-state="load_error"`)
		assert.Contains(t, body, `data-test="subscriptions-loading-error"`)
		assert.Contains(t, body, "There was a problem loading your subscriptions.")
	})

	t.Run("close renders the closed panel", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{records: records(t)}
		portal := newPortal(t, api)
		userID := uuid.New()

		do(t, portal, userID, http.MethodPost, "/subscriptions/renewal/open", nil)
		rec := do(t, portal, userID, http.MethodPost, "/subscriptions/renewal/close", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `data-state="closed"`)
		assert.Contains(t, body, `data-test="edit-button"`)
	})

	t.Run("submit sends toggle values and re-renders", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{records: records(t)}
		portal := newPortal(t, api)
		userID := uuid.New()

		do(t, portal, userID, http.MethodPost, "/subscriptions/renewal/open", nil)

		// Checkbox absent: the user switched auto-renewal off.
		rec := do(t, portal, userID, http.MethodPost, "/subscriptions/renewal", url.Values{})
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, map[string]bool{"sub-b": false}, api.settings())
		body := rec.Body.String()
		assert.Contains(t, body, `data-state="loaded"`)
		assert.NotContains(t, body, `data-test="update-error"`)
		assert.NotContains(t, body, `checked>`)
	})

	t.Run("business error stays on the panel", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{
			records:      records(t),
			updateResult: contracts.AutoRenewalResult{Errors: "Uh oh"},
		}
		portal := newPortal(t, api)
		userID := uuid.New()

		do(t, portal, userID, http.MethodPost, "/subscriptions/renewal/open", nil)
		form := url.Values{"renew-sub-b": {"true"}}
		rec := do(t, portal, userID, http.MethodPost, "/subscriptions/renewal", form)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `data-test="update-error"`)
		assert.Contains(t, body, "Uh oh")
		assert.Contains(t, body, `data-test="renewal-toggles"`)
	})

	t.Run("transport error surfaces like a business error", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{
			records:   records(t),
			updateErr: errors.New("connection reset"),
		}
		portal := newPortal(t, api)
		userID := uuid.New()

		do(t, portal, userID, http.MethodPost, "/subscriptions/renewal/open", nil)
		rec := do(t, portal, userID, http.MethodPost, "/subscriptions/renewal", url.Values{})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `data-test="update-error"`)
	})

	t.Run("accepted submit invalidates the snapshot", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{records: records(t)}
		portal := newPortal(t, api)
		userID := uuid.New()

		do(t, portal, userID, http.MethodPost, "/subscriptions/renewal/open", nil)
		require.Equal(t, 1, api.calls())

		do(t, portal, userID, http.MethodPost, "/subscriptions/renewal", url.Values{})
		do(t, portal, userID, http.MethodGet, "/subscriptions/", nil)

		assert.Equal(t, 2, api.calls())
	})

	t.Run("submit without an open panel keeps the panel closed", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{records: records(t)}
		portal := newPortal(t, api)

		rec := do(t, portal, uuid.New(), http.MethodPost, "/subscriptions/renewal", url.Values{})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `data-state="closed"`)
		assert.Nil(t, api.settings())
	})

	t.Run("datastar request receives an SSE patch", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{records: records(t)}
		portal := newPortal(t, api)
		userID := uuid.New()

		body := strings.NewReader("")
		r := httptest.NewRequest(http.MethodPost, "/subscriptions/renewal/open", body)
		r.Header.Set("X-User-ID", userID.String())
		r.Header.Set("Accept", "text/event-stream")
		rec := httptest.NewRecorder()
		portal.ServeHTTP(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
		assert.Contains(t, rec.Body.String(), "renewal-panel")
	})
}
