// Package alert implements the price alert modal: a form that suggests a
// target price, validates it locally and creates or updates the alert, plus
// the header bell that lists a user's alerts.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/auth"
	"github.com/lukman83/pricehub/internal/httputil"
	"github.com/lukman83/pricehub/internal/models"
)

type SessionProvider interface {
	Session() (auth.Session, bool)
}

// Client talks to the price alerts API. Every call needs a session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sessions   SessionProvider
}

func NewClient(httpClient *http.Client, baseURL string, sessions SessionProvider) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessions:   sessions,
	}
}

func (c *Client) List(ctx context.Context) ([]models.Alert, error) {
	var resp struct {
		Alerts []models.Alert `json:"alerts"`
	}
	body, err := c.do(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	// Either {"alerts": [...]} or a bare array.
	if err := json.Unmarshal(body, &resp); err != nil {
		if err := json.Unmarshal(body, &resp.Alerts); err != nil {
			return nil, apperr.TransportError("unexpected response", http.StatusOK, fmt.Errorf("decode alerts: %w", err))
		}
	}
	return resp.Alerts, nil
}

func (c *Client) Create(ctx context.Context, a models.Alert) (*models.Alert, error) {
	body, err := c.do(ctx, http.MethodPost, c.baseURL, a)
	if err != nil {
		return nil, err
	}
	return decodeAlert(body, a)
}

func (c *Client) Update(ctx context.Context, id string, a models.Alert) (*models.Alert, error) {
	body, err := c.do(ctx, http.MethodPut, c.baseURL+"/"+url.PathEscape(id), a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return decodeAlert(body, a)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.baseURL+"/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, u string, payload any) ([]byte, error) {
	sess, ok := c.session()
	if !ok {
		return nil, apperr.UnauthorizedError("NO_SESSION", "Please sign in to manage price alerts")
	}
	req, err := httputil.NewJSONRequest(ctx, method, u, payload)
	if err != nil {
		return nil, err
	}
	sess.Apply(req)
	return httputil.Do(c.httpClient, req)
}

func (c *Client) session() (auth.Session, bool) {
	if c.sessions == nil {
		return auth.Session{}, false
	}
	return c.sessions.Session()
}

// decodeAlert reads {"alert": {...}}, a bare alert, or nothing, in which case
// the submitted alert is returned as-is.
func decodeAlert(body []byte, sent models.Alert) (*models.Alert, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return &sent, nil
	}
	var envelope struct {
		Alert *models.Alert `json:"alert"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperr.TransportError("unexpected response", http.StatusOK, fmt.Errorf("decode alert: %w", err))
	}
	if envelope.Alert != nil {
		return envelope.Alert, nil
	}
	var bare models.Alert
	if err := json.Unmarshal(body, &bare); err == nil && bare.ID != "" {
		return &bare, nil
	}
	return &sent, nil
}
