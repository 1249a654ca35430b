package alert

import (
	"context"
	"log"
	"math"
	"sync"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/lukman83/pricehub/internal/state"
	"github.com/lukman83/pricehub/internal/validate"
)

// SuggestedRatio is the share of the current lowest price proposed as target.
const SuggestedRatio = 0.9

// Form is the modal's editable state.
type Form struct {
	ProductID          string  `json:"productId" validate:"required"`
	ProductName        string  `json:"productName,omitempty"`
	CurrentPrice       float64 `json:"currentPrice" validate:"gt=0"`
	TargetPrice        float64 `json:"targetPrice" validate:"gt=0,ltefield=CurrentPrice"`
	NotificationMethod string  `json:"notificationMethod" validate:"required,oneof=email browser both"`
	AlertName          string  `json:"alertName,omitempty" validate:"max=100"`
	EmailAddress       string  `json:"emailAddress,omitempty" validate:"required_unless=NotificationMethod browser,omitempty,email"`
	PriceIncreaseAlert bool    `json:"priceIncreaseAlert"`
	ExistingID         string  `json:"existingId,omitempty"`
}

var messages = validate.Messages{
	"currentPrice.gt":              "Current price is unavailable for this product",
	"targetPrice.gt":               "Target price must be greater than 0",
	"targetPrice.ltefield":         "Target price cannot be higher than the current price",
	"emailAddress.required_unless": "Email address is required for email notifications",
	"emailAddress.email":           "Please enter a valid email address",
}

// Validate returns per-field messages, or nil when the form can be submitted.
func (f Form) Validate() validate.Errors {
	return validate.Check(f.checked(), messages)
}

// checked is the form as it is validated and sent. Browser alerts carry no
// email, so a leftover address is not checked.
func (f Form) checked() Form {
	if f.NotificationMethod == models.NotifyBrowser {
		f.EmailAddress = ""
	}
	return f
}

func (f Form) CanSubmit() bool {
	return f.Validate() == nil
}

func (f Form) alert() models.Alert {
	a := models.Alert{
		ID:                 f.ExistingID,
		ProductID:          f.ProductID,
		TargetPrice:        f.TargetPrice,
		NotificationMethod: f.NotificationMethod,
		AlertName:          f.AlertName,
		PriceIncreaseAlert: f.PriceIncreaseAlert,
		IsActive:           true,
	}
	a.EmailAddress = f.checked().EmailAddress
	return a
}

// Suggest returns SuggestedRatio of price rounded to cents.
func Suggest(price float64) float64 {
	return math.Round(price*SuggestedRatio*100) / 100
}

// Modal is the price alert dialog. Construct one and pass it to whatever
// needs to open it.
type Modal struct {
	client *Client
	store  *state.Store

	mu   sync.Mutex
	form Form
	open bool
}

func NewModal(client *Client, store *state.Store) *Modal {
	return &Modal{client: client, store: store}
}

// Show opens the modal for p. With an existing alert the form is pre-filled
// for update; otherwise the target is suggested from the lowest offer.
func (m *Modal) Show(p models.Product, existing *models.Alert) Form {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, _ := p.LowestPrice()
	f := Form{
		ProductID:          p.ID,
		ProductName:        p.DisplayName(),
		CurrentPrice:       current,
		NotificationMethod: models.NotifyEmail,
	}
	if existing != nil {
		f.ExistingID = existing.ID
		f.TargetPrice = existing.TargetPrice
		f.NotificationMethod = existing.NotificationMethod
		f.AlertName = existing.AlertName
		f.EmailAddress = existing.EmailAddress
		f.PriceIncreaseAlert = existing.PriceIncreaseAlert
	} else {
		f.TargetPrice = Suggest(current)
	}
	m.form = f
	m.open = true
	return f
}

// Existing looks up a cached alert for productID.
func (m *Modal) Existing(productID string) *models.Alert {
	for _, a := range m.store.CachedAlerts() {
		if a.ProductID == productID {
			return &a
		}
	}
	return nil
}

// Edit applies fn to the open form and returns the result.
func (m *Modal) Edit(fn func(*Form)) Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.form)
	return m.form
}

func (m *Modal) Form() Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

func (m *Modal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Modal) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	m.form = Form{}
}

// Submit validates the form and creates or updates the alert. Invalid forms
// never reach the server. On success the modal closes and the local cache
// is updated.
func (m *Modal) Submit(ctx context.Context) (*models.Alert, error) {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return nil, apperr.ValidationError("NOT_OPEN", "Price alert form is not open")
	}
	f := m.form
	m.mu.Unlock()

	if err := validate.Struct(f.checked(), messages); err != nil {
		return nil, err
	}

	var (
		saved *models.Alert
		err   error
	)
	if f.ExistingID != "" {
		saved, err = m.client.Update(ctx, f.ExistingID, f.alert())
	} else {
		saved, err = m.client.Create(ctx, f.alert())
	}
	if err != nil {
		return nil, err
	}

	m.cache(*saved)
	m.Hide()
	return saved, nil
}

func (m *Modal) cache(a models.Alert) {
	cached := m.store.CachedAlerts()
	replaced := false
	for i := range cached {
		if (a.ID != "" && cached[i].ID == a.ID) || cached[i].ProductID == a.ProductID {
			cached[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		cached = append(cached, a)
	}
	if err := m.store.CacheAlerts(cached); err != nil {
		log.Printf("[alert] cache alert: %v", err)
	}
}
