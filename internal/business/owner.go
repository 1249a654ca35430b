package business

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/auth"
	"github.com/lukman83/pricehub/internal/httputil"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/lukman83/pricehub/internal/state"
	"github.com/lukman83/pricehub/internal/validate"
)

// OwnerCookie holds the bearer token of a signed-in business owner.
const OwnerCookie = "business_session_token"

// OwnerAuth is the business-owner sign-in, separate from standard users.
type OwnerAuth struct {
	httpClient *http.Client
	baseURL    string
	store      *state.Store
}

func NewOwnerAuth(httpClient *http.Client, baseURL string, store *state.Store) *OwnerAuth {
	return &OwnerAuth{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/"), store: store}
}

func (o *OwnerAuth) Name() string { return "business" }

func (o *OwnerAuth) Login(ctx context.Context, creds auth.Credentials) (*models.User, error) {
	if err := validate.Struct(creds, nil); err != nil {
		return nil, err
	}
	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, o.baseURL+"/auth/login", creds)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := httputil.DoJSON(o.httpClient, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, apperr.TransportError("Sign-in response did not include a session", http.StatusOK, nil)
	}
	if err := o.store.SetCookie(OwnerCookie, resp.Token, auth.SessionMaxAge); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// CurrentUser returns the signed-in owner. No request is made without a token.
func (o *OwnerAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	token, ok := o.store.Cookie(OwnerCookie)
	if !ok {
		return nil, apperr.UnauthorizedError("NO_SESSION", "Please sign in to continue")
	}
	req, err := httputil.NewJSONRequest(ctx, http.MethodGet, o.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp struct {
		User *models.User `json:"user"`
	}
	if err := httputil.DoJSON(o.httpClient, req, &resp); err != nil {
		if isStatus(err, http.StatusUnauthorized) {
			o.Logout()
			return nil, apperr.UnauthorizedError("SESSION_EXPIRED", "Your session has expired. Please sign in again.")
		}
		return nil, err
	}
	return resp.User, nil
}

func (o *OwnerAuth) Logout() {
	if err := o.store.DeleteCookie(OwnerCookie); err != nil {
		log.Printf("[business] clear owner session: %v", err)
	}
}

func isStatus(err error, status int) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Status == status
}
