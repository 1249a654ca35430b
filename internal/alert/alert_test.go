package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/auth"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/lukman83/pricehub/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct{ ok bool }

func (f fakeSessions) Session() (auth.Session, bool) {
	return auth.Session{ID: "sid", CSRFToken: "csrf"}, f.ok
}

type alertsAPI struct {
	*httptest.Server
	mu     sync.Mutex
	calls  []string
	bodies []models.Alert
	down   bool
}

func newAlertsAPI(t *testing.T) *alertsAPI {
	t.Helper()
	api := &alertsAPI{}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.calls = append(api.calls, r.Method+" "+r.URL.Path)
		down := api.down
		if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
			var a models.Alert
			require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
			api.bodies = append(api.bodies, a)
		}
		api.mu.Unlock()

		if down {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"alerts":[{"id":"a1","productId":"p1","targetPrice":900,"notificationMethod":"email","isActive":true},{"id":"a2","productId":"p2","targetPrice":50,"notificationMethod":"browser","isActive":false}]}`))
		case http.MethodPost:
			w.Write([]byte(`{"alert":{"id":"new-1","productId":"p1","targetPrice":899.1,"notificationMethod":"email","isActive":true}}`))
		case http.MethodPut:
			w.Write([]byte(`{"success":true}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *alertsAPI) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func product(price float64) models.Product {
	return models.Product{
		ID:     "p1",
		Brand:  "Dell",
		Model:  "XPS 13",
		Offers: []models.Offer{{Retailer: "A", Price: price + 100}, {Retailer: "B", Price: price}},
	}
}

func newModal(api *alertsAPI, signedIn bool) (*Modal, *state.Store) {
	store := state.NewMemory()
	return NewModal(NewClient(api.Client(), api.URL+"/alerts", fakeSessions{ok: signedIn}), store), store
}

// --- Form ---

func TestShow_SuggestsNinetyPercent(t *testing.T) {
	m, _ := newModal(newAlertsAPI(t), true)

	f := m.Show(product(999), nil)

	assert.True(t, m.IsOpen())
	assert.Equal(t, 999.0, f.CurrentPrice)
	assert.Equal(t, 899.1, f.TargetPrice)
	assert.Equal(t, "Dell XPS 13", f.ProductName)
	assert.Equal(t, models.NotifyEmail, f.NotificationMethod)
	assert.Empty(t, f.ExistingID)
}

func TestSuggest_RoundsToCents(t *testing.T) {
	assert.Equal(t, 11.11, Suggest(12.345))
	assert.Equal(t, 0.0, Suggest(0))
}

func TestShow_ExistingAlertPrefills(t *testing.T) {
	m, _ := newModal(newAlertsAPI(t), true)
	existing := &models.Alert{ID: "a1", ProductID: "p1", TargetPrice: 700, NotificationMethod: models.NotifyBrowser, AlertName: "XPS deal"}

	f := m.Show(product(999), existing)

	assert.Equal(t, "a1", f.ExistingID)
	assert.Equal(t, 700.0, f.TargetPrice)
	assert.Equal(t, models.NotifyBrowser, f.NotificationMethod)
	assert.Equal(t, "XPS deal", f.AlertName)
}

func TestForm_Validate(t *testing.T) {
	base := Form{ProductID: "p1", CurrentPrice: 100, TargetPrice: 90, NotificationMethod: models.NotifyEmail, EmailAddress: "ann@example.com"}
	assert.True(t, base.CanSubmit())

	above := base
	above.TargetPrice = 120
	assert.Equal(t, "Target price cannot be higher than the current price", above.Validate()["targetPrice"])

	equal := base
	equal.TargetPrice = 100
	assert.True(t, equal.CanSubmit())

	zero := base
	zero.TargetPrice = 0
	assert.Equal(t, "Target price must be greater than 0", zero.Validate()["targetPrice"])

	negative := base
	negative.TargetPrice = -5
	assert.False(t, negative.CanSubmit())
}

func TestForm_EmailRequiredOnlyForEmailMethods(t *testing.T) {
	f := Form{ProductID: "p1", CurrentPrice: 100, TargetPrice: 90}

	for _, method := range []string{models.NotifyEmail, models.NotifyBoth} {
		f.NotificationMethod = method
		f.EmailAddress = ""
		assert.Equal(t, "Email address is required for email notifications", f.Validate()["emailAddress"], method)

		f.EmailAddress = "not-an-email"
		assert.Equal(t, "Please enter a valid email address", f.Validate()["emailAddress"], method)

		f.EmailAddress = "ann@example.com"
		assert.True(t, f.CanSubmit(), method)
	}

	f.NotificationMethod = models.NotifyBrowser
	f.EmailAddress = ""
	assert.True(t, f.CanSubmit())

	f.EmailAddress = "not-an-email"
	assert.Nil(t, f.Validate())
	assert.True(t, f.CanSubmit())
}

func TestSubmit_BrowserIgnoresLeftoverEmail(t *testing.T) {
	api := newAlertsAPI(t)
	defer api.Close()
	m, _ := newModal(api, true)
	m.Show(product(999), nil)
	m.Edit(func(f *Form) {
		f.EmailAddress = "not-an-email"
		f.NotificationMethod = models.NotifyBrowser
	})

	_, err := m.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"POST /alerts"}, api.Calls())
	assert.Empty(t, api.bodies[0].EmailAddress)
}

// --- Submit ---

func TestSubmit_InvalidNeverSent(t *testing.T) {
	api := newAlertsAPI(t)
	defer api.Close()
	m, _ := newModal(api, true)
	m.Show(product(999), nil)
	m.Edit(func(f *Form) { f.TargetPrice = 5000 })

	_, err := m.Submit(context.Background())

	assert.True(t, apperr.IsKind(err, apperr.Validation))
	assert.Empty(t, api.Calls())
	assert.True(t, m.IsOpen())
}

func TestSubmit_CreatesAndCaches(t *testing.T) {
	api := newAlertsAPI(t)
	defer api.Close()
	m, store := newModal(api, true)
	m.Show(product(999), nil)
	m.Edit(func(f *Form) { f.EmailAddress = "ann@example.com" })

	saved, err := m.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "new-1", saved.ID)
	assert.Equal(t, []string{"POST /alerts"}, api.Calls())
	assert.Equal(t, 899.1, api.bodies[0].TargetPrice)
	assert.Equal(t, "ann@example.com", api.bodies[0].EmailAddress)
	assert.False(t, m.IsOpen())

	require.Len(t, store.CachedAlerts(), 1)
	assert.Equal(t, "new-1", m.Existing("p1").ID)
}

func TestSubmit_UpdatesExisting(t *testing.T) {
	api := newAlertsAPI(t)
	defer api.Close()
	m, _ := newModal(api, true)
	m.Show(product(999), &models.Alert{ID: "a1", ProductID: "p1", TargetPrice: 800, NotificationMethod: models.NotifyBrowser, EmailAddress: "stale@example.com"})

	saved, err := m.Submit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "a1", saved.ID)
	assert.Equal(t, []string{"PUT /alerts/a1"}, api.Calls())
	assert.Empty(t, api.bodies[0].EmailAddress)
}

func TestSubmit_RequiresSession(t *testing.T) {
	api := newAlertsAPI(t)
	defer api.Close()
	m, _ := newModal(api, false)
	m.Show(product(999), nil)
	m.Edit(func(f *Form) { f.EmailAddress = "ann@example.com" })

	_, err := m.Submit(context.Background())

	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
	assert.Empty(t, api.Calls())
}

func TestSubmit_ClosedModal(t *testing.T) {
	m, _ := newModal(newAlertsAPI(t), true)
	_, err := m.Submit(context.Background())
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

// --- Bell ---

func TestBell_RefreshAndFallback(t *testing.T) {
	api := newAlertsAPI(t)
	defer api.Close()
	store := state.NewMemory()
	bell := NewBell(NewClient(api.Client(), api.URL+"/alerts", fakeSessions{ok: true}), store)

	alerts := bell.Refresh(context.Background())
	require.Len(t, alerts, 2)
	assert.Equal(t, 1, ActiveCount(alerts))

	api.mu.Lock()
	api.down = true
	api.mu.Unlock()

	cached := bell.Refresh(context.Background())
	assert.Equal(t, alerts, cached)
}

func TestBell_SignedOutIsSilent(t *testing.T) {
	api := newAlertsAPI(t)
	defer api.Close()
	bell := NewBell(NewClient(api.Client(), api.URL+"/alerts", fakeSessions{}), state.NewMemory())

	assert.Empty(t, bell.Refresh(context.Background()))
	assert.Empty(t, api.Calls())
}

func TestBell_Delete(t *testing.T) {
	api := newAlertsAPI(t)
	defer api.Close()
	store := state.NewMemory()
	bell := NewBell(NewClient(api.Client(), api.URL+"/alerts", fakeSessions{ok: true}), store)
	bell.Refresh(context.Background())

	require.NoError(t, bell.Delete(context.Background(), "a1"))

	require.Len(t, store.CachedAlerts(), 1)
	assert.Equal(t, "a2", store.CachedAlerts()[0].ID)
	assert.Contains(t, api.Calls(), "DELETE /alerts/a1")
}
