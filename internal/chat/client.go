package chat

import (
	"context"
	"net/http"
	"net/url"

	"github.com/lukman83/pricehub/internal/auth"
	"github.com/lukman83/pricehub/internal/httputil"
	"github.com/lukman83/pricehub/internal/models"
)

// SessionHeader carries the per-device chat session id.
const SessionHeader = "x-session-id"

// API is the chat function as the widget sees it.
type API interface {
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	GetMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID string) error
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
	Clear(ctx context.Context, conversationID string) error
	Delete(ctx context.Context, conversationID string) error
	Block(ctx context.Context, conversationID string) error
	Report(ctx context.Context, conversationID, reason string) error
}

// SendRequest targets either an existing conversation or, for the first
// message, a recipient.
type SendRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	RecipientID    string `json:"recipientId,omitempty"`
	Content        string `json:"content"`
}

// SendResult is the conversation the message landed in. Message is nil when
// the function does not echo it back.
type SendResult struct {
	ConversationID string          `json:"conversation_id"`
	Message        *models.Message `json:"message"`
}

type SessionProvider interface {
	Session() (auth.Session, bool)
}

// Client calls the chat edge function. All operations share one URL and are
// told apart by method and body.
type Client struct {
	httpClient *http.Client
	url        string
	anonKey    string
	sessionID  string
	sessions   SessionProvider
}

func NewClient(httpClient *http.Client, url, anonKey, sessionID string, sessions SessionProvider) *Client {
	return &Client{
		httpClient: httpClient,
		url:        url,
		anonKey:    anonKey,
		sessionID:  sessionID,
		sessions:   sessions,
	}
}

func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var resp struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	err := c.do(ctx, http.MethodGet, url.Values{"resource": {"conversations"}}, nil, &resp)
	return resp.Conversations, err
}

func (c *Client) GetMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, url.Values{"conversationId": {conversationID}}, nil, &resp)
	return resp.Messages, err
}

func (c *Client) MarkRead(ctx context.Context, conversationID string) error {
	return c.action(ctx, conversationID, "markRead", "")
}

func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	var res SendResult
	if err := c.do(ctx, http.MethodPost, nil, req, &res); err != nil {
		return nil, err
	}
	if res.ConversationID == "" && res.Message != nil {
		res.ConversationID = res.Message.ConversationID
	}
	if res.ConversationID == "" {
		res.ConversationID = req.ConversationID
	}
	return &res, nil
}

func (c *Client) Clear(ctx context.Context, conversationID string) error {
	return c.action(ctx, conversationID, "clear", "")
}

func (c *Client) Block(ctx context.Context, conversationID string) error {
	return c.action(ctx, conversationID, "block", "")
}

func (c *Client) Report(ctx context.Context, conversationID, reason string) error {
	return c.action(ctx, conversationID, "report", reason)
}

func (c *Client) Delete(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, nil, map[string]string{"conversationId": conversationID}, nil)
}

func (c *Client) action(ctx context.Context, conversationID, action, reason string) error {
	body := map[string]string{"conversationId": conversationID, "action": action}
	if reason != "" {
		body["reason"] = reason
	}
	return c.do(ctx, http.MethodPut, nil, body, nil)
}

func (c *Client) do(ctx context.Context, method string, query url.Values, payload, out any) error {
	u := c.url
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := httputil.NewJSONRequest(ctx, method, u, payload)
	if err != nil {
		return err
	}
	httputil.SetEdgeFunctionAuth(req.Header, c.anonKey)
	req.Header.Set(SessionHeader, c.sessionID)
	if c.sessions != nil {
		if sess, ok := c.sessions.Session(); ok {
			sess.Apply(req)
		}
	}

	return httputil.DoJSON(c.httpClient, req, out)
}
