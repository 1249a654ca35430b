// Package chat is the chat widget: a conversation list and message thread
// kept in sync with the chat function by optimistic sends and polling.
//
// A conversation starts either from the list or from a deep link naming a
// recipient. Until the first message to that recipient is answered there is
// no conversation id, so the message is staged under PendingKey and sent with
// the recipient id instead. Two sends racing before that answer both go out
// with the recipient id and may create two conversations; the function
// accepts no dedup key.
package chat

import (
	"context"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/models"
	"golang.org/x/sync/errgroup"
)

// PendingKey holds messages for a recipient that has no conversation yet.
const PendingKey = "__pending__"

// DefaultPollInterval is how often Poll refreshes the conversation list.
const DefaultPollInterval = 20 * time.Second

// Action is a destructive conversation action gated by a confirmation.
type Action string

const (
	ActionClear  Action = "clear"
	ActionDelete Action = "delete"
	ActionBlock  Action = "block"
	ActionReport Action = "report"
)

// State is a copy of the widget state for rendering.
type State struct {
	Conversations    []models.Conversation       `json:"conversations"`
	ActiveID         string                      `json:"active_id,omitempty"`
	PendingRecipient string                      `json:"pending_recipient,omitempty"`
	Messages         map[string][]models.Message `json:"messages"`
	Banner           string                      `json:"banner,omitempty"`
	ConfirmAction    Action                      `json:"confirm_action,omitempty"`
	ConfirmCID       string                      `json:"confirm_cid,omitempty"`
}

// Thread returns the messages shown for the active or pending conversation.
func (s State) Thread() []models.Message {
	if s.ActiveID != "" {
		return s.Messages[s.ActiveID]
	}
	return s.Messages[PendingKey]
}

type Widget struct {
	api      API
	userID   string
	interval time.Duration
	now      func() time.Time

	mu               sync.Mutex
	conversations    []models.Conversation
	activeID         string
	pendingRecipient string
	messages         map[string][]models.Message
	banner           string
	confirmAction    Action
	confirmCID       string
}

// NewWidget builds a widget for the signed-in userID. A zero interval uses
// DefaultPollInterval.
func NewWidget(api API, userID string, interval time.Duration) *Widget {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Widget{
		api:      api,
		userID:   userID,
		interval: interval,
		now:      time.Now,
		messages: make(map[string][]models.Message),
	}
}

func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	msgs := make(map[string][]models.Message, len(w.messages))
	for k, v := range w.messages {
		msgs[k] = slices.Clone(v)
	}
	return State{
		Conversations:    slices.Clone(w.conversations),
		ActiveID:         w.activeID,
		PendingRecipient: w.pendingRecipient,
		Messages:         msgs,
		Banner:           w.banner,
		ConfirmAction:    w.confirmAction,
		ConfirmCID:       w.confirmCID,
	}
}

// Refresh reloads the conversation list. The active conversation stays
// selected if it is still listed.
func (w *Widget) Refresh(ctx context.Context) error {
	convs, err := w.api.ListConversations(ctx)
	if err != nil {
		w.fail("Could not load conversations", err)
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.conversations = convs
	if w.activeID != "" && !containsConversation(convs, w.activeID) {
		delete(w.messages, w.activeID)
		w.activeID = ""
	}
	return nil
}

// StartWith opens a chat with recipientID from a deep link. An existing
// conversation with the recipient is selected; otherwise the recipient is
// held as pending until the first send.
func (w *Widget) StartWith(ctx context.Context, recipientID string) error {
	w.mu.Lock()
	var existing string
	for _, c := range w.conversations {
		if c.OtherParty.ID == recipientID {
			existing = c.ID
			break
		}
	}
	if existing == "" {
		w.activeID = ""
		w.pendingRecipient = recipientID
		w.messages[PendingKey] = nil
	}
	w.mu.Unlock()

	if existing != "" {
		return w.Select(ctx, existing)
	}
	return nil
}

// Select makes cid active, loading its messages and marking it read in
// parallel. A failed read receipt is only logged.
func (w *Widget) Select(ctx context.Context, cid string) error {
	w.mu.Lock()
	w.activeID = cid
	w.pendingRecipient = ""
	delete(w.messages, PendingKey)
	w.mu.Unlock()

	var msgs []models.Message
	var g errgroup.Group
	g.Go(func() error {
		var err error
		msgs, err = w.api.GetMessages(ctx, cid)
		return err
	})
	g.Go(func() error {
		if err := w.api.MarkRead(ctx, cid); err != nil {
			log.Printf("[chat] mark %s read: %v", cid, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		w.fail("Could not load messages", err)
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages[cid] = w.deriveAll(msgs)
	for i := range w.conversations {
		if w.conversations[i].ID == cid {
			w.conversations[i].UnreadCount = 0
		}
	}
	return nil
}

// Send posts text to the active conversation, or to the pending recipient
// when no conversation exists yet.
func (w *Widget) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return apperr.ValidationError("EMPTY_MESSAGE", "Type a message first")
	}

	w.mu.Lock()
	cid, recipient := w.activeID, w.pendingRecipient
	if cid == "" && recipient == "" {
		w.mu.Unlock()
		return apperr.ValidationError("NO_CONVERSATION", "Select a conversation first")
	}
	key := cid
	if key == "" {
		key = PendingKey
	}
	tmp := models.Message{
		ID:             "tmp-" + uuid.NewString(),
		ConversationID: cid,
		SenderID:       w.userID,
		Content:        text,
		CreatedAt:      w.now(),
		Sender:         models.SenderMe,
		Status:         models.StatusSent,
	}
	w.messages[key] = append(w.messages[key], tmp)
	w.mu.Unlock()

	req := SendRequest{ConversationID: cid, Content: text}
	if cid == "" {
		req.RecipientID = recipient
	}
	res, err := w.api.Send(ctx, req)
	if err != nil {
		w.mu.Lock()
		w.messages[key] = removeMessage(w.messages[key], tmp.ID)
		w.mu.Unlock()
		w.fail("Message not sent", err)
		return err
	}

	if cid == "" {
		created := res.ConversationID
		if created == "" {
			created = w.resolve(ctx, recipient)
		}
		if created == "" {
			// The message went out but there is no thread to show it in yet.
			// Stay pending so the next refresh or send can still find it.
			w.mu.Lock()
			w.messages[key] = removeMessage(w.messages[key], tmp.ID)
			w.mu.Unlock()
			err := apperr.TransportError("The conversation could not be opened", 0, nil)
			w.fail("Message sent", err)
			return err
		}
		return w.adopt(ctx, created)
	}

	w.mu.Lock()
	if res.Message != nil {
		replaced := false
		msgs := w.messages[cid]
		for i := range msgs {
			if msgs[i].ID == tmp.ID {
				msgs[i] = w.derive(*res.Message)
				replaced = true
				break
			}
		}
		w.mu.Unlock()
		if replaced {
			return nil
		}
	} else {
		w.mu.Unlock()
	}
	return w.reload(ctx, cid)
}

// resolve looks up the conversation with recipientID after a send that came
// back without an id. It returns "" when none is listed.
func (w *Widget) resolve(ctx context.Context, recipientID string) string {
	convs, err := w.api.ListConversations(ctx)
	if err != nil {
		log.Printf("[chat] list conversations after first message: %v", err)
		return ""
	}
	for _, c := range convs {
		if c.OtherParty.ID == recipientID {
			return c.ID
		}
	}
	return ""
}

// adopt switches from the pending recipient to the conversation the server
// created, dropping staged messages in favour of the server's thread.
func (w *Widget) adopt(ctx context.Context, cid string) error {
	w.mu.Lock()
	delete(w.messages, PendingKey)
	w.pendingRecipient = ""
	w.activeID = cid
	w.mu.Unlock()

	if err := w.reload(ctx, cid); err != nil {
		return err
	}
	if err := w.Refresh(ctx); err != nil {
		log.Printf("[chat] refresh after first message: %v", err)
	}
	return nil
}

func (w *Widget) reload(ctx context.Context, cid string) error {
	msgs, err := w.api.GetMessages(ctx, cid)
	if err != nil {
		w.fail("Could not load messages", err)
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages[cid] = w.deriveAll(msgs)
	return nil
}

// Poll refreshes the conversation list and the open thread every interval
// until ctx is cancelled. Failures are shown in the banner and polling goes on.
func (w *Widget) Poll(ctx context.Context) error {
	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if err := w.Refresh(ctx); err != nil {
				continue
			}
			w.mu.Lock()
			cid := w.activeID
			w.mu.Unlock()
			if cid != "" {
				_ = w.reload(ctx, cid)
			}
		}
	}
}

// RequestConfirm arms a destructive action for cid. Nothing is sent until
// Confirm.
func (w *Widget) RequestConfirm(action Action, cid string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.confirmAction = action
	w.confirmCID = cid
}

func (w *Widget) Dismiss() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.confirmAction = ""
	w.confirmCID = ""
}

// Confirm runs the armed action and refreshes the list. reason is only used
// by ActionReport, which requires one.
func (w *Widget) Confirm(ctx context.Context, reason string) error {
	w.mu.Lock()
	action, cid := w.confirmAction, w.confirmCID
	w.mu.Unlock()

	if action == "" || cid == "" {
		return apperr.ValidationError("NOTHING_TO_CONFIRM", "No action to confirm")
	}
	if action == ActionReport && strings.TrimSpace(reason) == "" {
		return apperr.ValidationError("REASON_REQUIRED", "Please tell us why you are reporting this conversation")
	}

	var err error
	switch action {
	case ActionClear:
		err = w.api.Clear(ctx, cid)
	case ActionDelete:
		err = w.api.Delete(ctx, cid)
	case ActionBlock:
		err = w.api.Block(ctx, cid)
	case ActionReport:
		err = w.api.Report(ctx, cid, reason)
	default:
		return apperr.ValidationError("UNKNOWN_ACTION", "Unknown action "+string(action))
	}
	w.Dismiss()
	if err != nil {
		w.fail("Could not "+string(action)+" conversation", err)
		return err
	}

	w.mu.Lock()
	switch action {
	case ActionClear:
		w.messages[cid] = nil
	case ActionDelete:
		delete(w.messages, cid)
		if w.activeID == cid {
			w.activeID = ""
		}
	}
	w.mu.Unlock()

	if err := w.Refresh(ctx); err != nil {
		log.Printf("[chat] refresh after %s: %v", action, err)
	}
	return nil
}

func (w *Widget) DismissBanner() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.banner = ""
}

func (w *Widget) fail(msg string, err error) {
	log.Printf("[chat] %s: %v", strings.ToLower(msg), err)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.banner = msg + ": " + apperr.UserMessage(err)
}

func (w *Widget) derive(m models.Message) models.Message {
	return Derive(m, w.userID)
}

func (w *Widget) deriveAll(msgs []models.Message) []models.Message {
	out := make([]models.Message, len(msgs))
	for i, m := range msgs {
		out[i] = w.derive(m)
	}
	return out
}

// Derive tags a server message with who sent it and its delivery status.
func Derive(m models.Message, userID string) models.Message {
	if m.SenderID == userID {
		m.Sender = models.SenderMe
	} else {
		m.Sender = models.SenderThem
	}
	if m.IsRead {
		m.Status = models.StatusRead
	} else {
		m.Status = models.StatusDelivered
	}
	return m
}

func containsConversation(convs []models.Conversation, id string) bool {
	for _, c := range convs {
		if c.ID == id {
			return true
		}
	}
	return false
}

func removeMessage(msgs []models.Message, id string) []models.Message {
	return slices.DeleteFunc(msgs, func(m models.Message) bool { return m.ID == id })
}
