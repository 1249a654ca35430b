// Package auth talks to the standard-user auth function. Every call is a POST
// discriminated by an "action" field; the session is a pair of cookies kept in
// the state store for twelve hours.
package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/httputil"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/lukman83/pricehub/internal/state"
	"github.com/lukman83/pricehub/internal/validate"
)

const (
	SessionCookie = "standard_session_id"
	CSRFCookie    = "standard_csrf_token"
	SessionMaxAge = 12 * time.Hour
)

const (
	noticeSignedOut = "You have been signed out."
	noticeExpired   = "Your session has expired. Please sign in again."
)

// Session is the cookie pair identifying a signed-in user.
type Session struct {
	ID        string
	CSRFToken string
}

// Apply attaches the session cookies and CSRF header to req.
func (s Session) Apply(req *http.Request) {
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: s.ID})
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: s.CSRFToken})
	req.Header.Set("X-CSRF-Token", s.CSRFToken)
}

type Client struct {
	httpClient *http.Client
	url        string
	anonKey    string
	store      *state.Store
}

func NewClient(httpClient *http.Client, url, anonKey string, store *state.Store) *Client {
	return &Client{httpClient: httpClient, url: url, anonKey: anonKey, store: store}
}

// Name identifies this session source in the header.
func (c *Client) Name() string { return "standard" }

// Session returns the stored session when both cookies are present.
func (c *Client) Session() (Session, bool) {
	id, ok := c.store.Cookie(SessionCookie)
	if !ok {
		return Session{}, false
	}
	csrf, ok := c.store.Cookie(CSRFCookie)
	if !ok {
		return Session{}, false
	}
	return Session{ID: id, CSRFToken: csrf}, true
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type ProfileUpdate struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type PasswordChange struct {
	Current string `json:"currentPassword" validate:"required"`
	New     string `json:"newPassword" validate:"required,min=8"`
}

type AccountDeletion struct {
	Password string `json:"password" validate:"required"`
}

var accountMessages = validate.Messages{
	"currentPassword.required": "Current password is required",
	"newPassword.required":     "New password must be at least 8 characters",
	"newPassword.min":          "New password must be at least 8 characters",
	"password.required":        "Password is required",
}

// LoginResult carries the signed-in user and the page they were headed to.
type LoginResult struct {
	User      *models.User
	ReturnURL string
}

type response struct {
	Success   bool         `json:"success"`
	SessionID string       `json:"sessionId"`
	CSRFToken string       `json:"csrfToken"`
	User      *models.User `json:"user"`
	Error     string       `json:"error"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if err := validate.Struct(creds, nil); err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, "login", nil, map[string]any{
		"email":    creds.Email,
		"password": creds.Password,
	})
	if err != nil {
		return nil, err
	}
	if err := c.startSession(resp); err != nil {
		return nil, err
	}
	result := &LoginResult{User: resp.User}
	if url, ok, err := c.store.TakeOnce(state.ReturnURL); err != nil {
		log.Printf("[auth] clear return url: %v", err)
	} else if ok {
		result.ReturnURL = url
	}
	return result, nil
}

// Register creates an account. The auth function signs the new user in when
// it returns a session.
func (c *Client) Register(ctx context.Context, reg Registration) (*models.User, error) {
	if err := validate.Struct(reg, nil); err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, "register", nil, map[string]any{
		"email":    reg.Email,
		"password": reg.Password,
		"name":     reg.Name,
		"phone":    reg.Phone,
	})
	if err != nil {
		return nil, err
	}
	if resp.SessionID != "" {
		if err := c.startSession(resp); err != nil {
			return nil, err
		}
	}
	return resp.User, nil
}

// CurrentUser asks the auth function who the session belongs to. Without a
// session no request is made. A rejected session is cleared and leaves an
// expiry notice behind.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	sess, ok := c.Session()
	if !ok {
		return nil, apperr.UnauthorizedError("NO_SESSION", "Please sign in to continue")
	}
	resp, err := c.call(ctx, "getUserInfo", &sess, nil)
	if err != nil {
		if isRejected(err) {
			c.endSession(noticeExpired)
			return nil, apperr.UnauthorizedError("SESSION_EXPIRED", noticeExpired)
		}
		return nil, err
	}
	return resp.User, nil
}

// Logout ends the session locally even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	sess, ok := c.Session()
	if !ok {
		return nil
	}
	if _, err := c.call(ctx, "logout", &sess, nil); err != nil {
		log.Printf("[auth] logout: %v", err)
	}
	c.endSession(noticeSignedOut)
	return nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*models.User, error) {
	if err := validate.Struct(upd, nil); err != nil {
		return nil, err
	}
	resp, err := c.authed(ctx, "updateProfile", map[string]any{"name": upd.Name, "phone": upd.Phone})
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) error {
	if err := validate.Struct(change, accountMessages); err != nil {
		return err
	}
	_, err := c.authed(ctx, "changePassword", map[string]any{"currentPassword": change.Current, "newPassword": change.New})
	return err
}

func (c *Client) ChangeEmail(ctx context.Context, email, password string) error {
	if err := validate.Struct(Credentials{Email: email, Password: password}, nil); err != nil {
		return err
	}
	_, err := c.authed(ctx, "changeEmail", map[string]any{"newEmail": email, "password": password})
	return err
}

// DeleteAccount removes the account and drops the local session.
func (c *Client) DeleteAccount(ctx context.Context, del AccountDeletion) error {
	if err := validate.Struct(del, accountMessages); err != nil {
		return err
	}
	if _, err := c.authed(ctx, "deleteAccount", map[string]any{"password": del.Password}); err != nil {
		return err
	}
	c.endSession("")
	return nil
}

// Notice returns the pending auth notice once.
func (c *Client) Notice() (string, bool) {
	v, ok, err := c.store.TakeOnce(state.AuthNotice)
	if err != nil {
		log.Printf("[auth] clear notice: %v", err)
	}
	return v, ok
}

// SetReturnURL records where to go after the next successful login.
func (c *Client) SetReturnURL(url string) error {
	return c.store.SetOnce(state.ReturnURL, url)
}

func (c *Client) authed(ctx context.Context, action string, fields map[string]any) (*response, error) {
	sess, ok := c.Session()
	if !ok {
		return nil, apperr.UnauthorizedError("NO_SESSION", "Please sign in to continue")
	}
	return c.call(ctx, action, &sess, fields)
}

func (c *Client) call(ctx context.Context, action string, sess *Session, fields map[string]any) (*response, error) {
	payload := map[string]any{"action": action}
	for k, v := range fields {
		payload[k] = v
	}
	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, c.url, payload)
	if err != nil {
		return nil, err
	}
	httputil.SetEdgeFunctionAuth(req.Header, c.anonKey)
	if sess != nil {
		sess.Apply(req)
	}

	var resp response
	if err := httputil.DoJSON(c.httpClient, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" && !resp.Success {
		return nil, apperr.TransportError(resp.Error, http.StatusOK, errors.New(action+" rejected"))
	}
	return &resp, nil
}

func (c *Client) startSession(resp *response) error {
	if resp.SessionID == "" || resp.CSRFToken == "" {
		return apperr.TransportError("Sign-in response did not include a session", http.StatusOK, nil)
	}
	if err := c.store.SetCookie(SessionCookie, resp.SessionID, SessionMaxAge); err != nil {
		return err
	}
	return c.store.SetCookie(CSRFCookie, resp.CSRFToken, SessionMaxAge)
}

func (c *Client) endSession(notice string) {
	if err := c.store.DeleteCookie(SessionCookie, CSRFCookie); err != nil {
		log.Printf("[auth] clear session: %v", err)
	}
	if notice == "" {
		return
	}
	if err := c.store.SetOnce(state.AuthNotice, notice); err != nil {
		log.Printf("[auth] store notice: %v", err)
	}
}

func isRejected(err error) bool {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Status == http.StatusUnauthorized || appErr.Status == http.StatusForbidden
	}
	return false
}
