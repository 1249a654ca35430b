package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const me = "user-1"

// fakeAPI is an in-memory chat function. Conversations are created by sends
// that carry a recipient id, exactly as the real function does.
type fakeAPI struct {
	mu      sync.Mutex
	convs   []models.Conversation
	msgs    map[string][]models.Message
	calls   []string
	sends   []SendRequest
	created int
	nextMsg int
	echo    bool
	fail    map[string]error

	omitID bool // answer sends without the conversation id
	lost   bool // accept sends but create no conversation

	gate    chan struct{}
	entered chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		msgs: map[string][]models.Message{},
		fail: map[string]error{},
		echo: true,
	}
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	name, _, _ := strings.Cut(call, ":")
	return f.fail[name]
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) addConversation(id, otherID string, msgs ...models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convs = append(f.convs, models.Conversation{ID: id, OtherParty: models.OtherParty{ID: otherID, Name: "Party " + otherID}, UnreadCount: len(msgs)})
	f.msgs[id] = msgs
}

func (f *fakeAPI) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	if err := f.record("ListConversations"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Conversation(nil), f.convs...), nil
}

func (f *fakeAPI) GetMessages(ctx context.Context, cid string) ([]models.Message, error) {
	if err := f.record("GetMessages:" + cid); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Message(nil), f.msgs[cid]...), nil
}

func (f *fakeAPI) MarkRead(ctx context.Context, cid string) error {
	return f.record("MarkRead:" + cid)
}

func (f *fakeAPI) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if err := f.record("Send"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, req)
	if f.lost {
		return &SendResult{}, nil
	}
	cid := req.ConversationID
	if cid == "" {
		f.created++
		cid = fmt.Sprintf("conv-%d", f.created)
		f.convs = append(f.convs, models.Conversation{ID: cid, OtherParty: models.OtherParty{ID: req.RecipientID}})
	}
	f.nextMsg++
	msg := models.Message{ID: fmt.Sprintf("m-%d", f.nextMsg), ConversationID: cid, SenderID: me, Content: req.Content}
	f.msgs[cid] = append(f.msgs[cid], msg)

	res := &SendResult{ConversationID: cid}
	if f.omitID {
		res.ConversationID = ""
	}
	if f.echo && !f.omitID {
		res.Message = &msg
	}
	return res, nil
}

func (f *fakeAPI) Clear(ctx context.Context, cid string) error {
	return f.record("Clear:" + cid)
}

func (f *fakeAPI) Delete(ctx context.Context, cid string) error {
	if err := f.record("Delete:" + cid); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.convs {
		if c.ID == cid {
			f.convs = append(f.convs[:i], f.convs[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAPI) Block(ctx context.Context, cid string) error {
	return f.record("Block:" + cid)
}

func (f *fakeAPI) Report(ctx context.Context, cid, reason string) error {
	return f.record("Report:" + cid + ":" + reason)
}

func (f *fakeAPI) hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 8)
}

func (f *fakeAPI) release() {
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	f.mu.Unlock()
	close(gate)
}

func loadedWidget(t *testing.T, api *fakeAPI) *Widget {
	t.Helper()
	w := NewWidget(api, me, time.Hour)
	require.NoError(t, w.Refresh(context.Background()))
	return w
}

// --- Selecting ---

func TestSelect_LoadsMessagesAndMarksRead(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1",
		models.Message{ID: "1", SenderID: "biz-1", Content: "Hello", IsRead: true},
		models.Message{ID: "2", SenderID: me, Content: "Hi"},
	)
	w := loadedWidget(t, api)

	require.NoError(t, w.Select(context.Background(), "c1"))

	st := w.State()
	assert.Equal(t, "c1", st.ActiveID)
	assert.Equal(t, 0, st.Conversations[0].UnreadCount)
	thread := st.Thread()
	require.Len(t, thread, 2)
	assert.Equal(t, models.SenderThem, thread[0].Sender)
	assert.Equal(t, models.StatusRead, thread[0].Status)
	assert.Equal(t, models.SenderMe, thread[1].Sender)
	assert.Equal(t, models.StatusDelivered, thread[1].Status)
	assert.Equal(t, 1, api.count("GetMessages:c1"))
	assert.Equal(t, 1, api.count("MarkRead:c1"))
}

func TestSelect_MarkReadFailureTolerated(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1", models.Message{ID: "1", SenderID: "biz-1"})
	api.fail["MarkRead"] = errors.New("boom")
	w := loadedWidget(t, api)

	require.NoError(t, w.Select(context.Background(), "c1"))

	assert.Len(t, w.State().Thread(), 1)
	assert.Empty(t, w.State().Banner)
}

func TestSelect_LoadFailureSetsBanner(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	api.fail["GetMessages"] = apperr.TransportError("chat unavailable", 503, nil)
	w := loadedWidget(t, api)

	err := w.Select(context.Background(), "c1")

	require.Error(t, err)
	assert.Equal(t, "Could not load messages: chat unavailable", w.State().Banner)
	w.DismissBanner()
	assert.Empty(t, w.State().Banner)
}

func TestStartWith_ExistingConversationIsSelected(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	w := loadedWidget(t, api)

	require.NoError(t, w.StartWith(context.Background(), "biz-1"))

	st := w.State()
	assert.Equal(t, "c1", st.ActiveID)
	assert.Empty(t, st.PendingRecipient)
}

// --- Sending ---

func TestSend_PendingRecipientCreatesOneConversation(t *testing.T) {
	api := newFakeAPI()
	w := loadedWidget(t, api)
	ctx := context.Background()
	require.NoError(t, w.StartWith(ctx, "biz-9"))

	require.NoError(t, w.Send(ctx, "Is this still available?"))

	st := w.State()
	assert.Equal(t, 1, api.created)
	assert.Equal(t, "conv-1", st.ActiveID)
	assert.Empty(t, st.PendingRecipient)
	_, pending := st.Messages[PendingKey]
	assert.False(t, pending)
	require.Len(t, st.Thread(), 1)
	assert.Equal(t, "m-1", st.Thread()[0].ID)
	require.Len(t, st.Conversations, 1)

	require.NoError(t, w.Send(ctx, "Can you deliver?"))

	assert.Equal(t, 1, api.created)
	require.Len(t, api.sends, 2)
	assert.Equal(t, "biz-9", api.sends[0].RecipientID)
	assert.Empty(t, api.sends[0].ConversationID)
	assert.Equal(t, "conv-1", api.sends[1].ConversationID)
	assert.Empty(t, api.sends[1].RecipientID)
}

func TestSend_PendingWithoutConversationIDResolvesByRecipient(t *testing.T) {
	api := newFakeAPI()
	api.omitID = true
	w := loadedWidget(t, api)
	ctx := context.Background()
	require.NoError(t, w.StartWith(ctx, "biz-9"))

	require.NoError(t, w.Send(ctx, "Hello"))

	st := w.State()
	assert.Equal(t, "conv-1", st.ActiveID)
	assert.Empty(t, st.PendingRecipient)
	require.Len(t, st.Thread(), 1)
	assert.Zero(t, api.count("GetMessages:"))
}

func TestSend_PendingWithoutConversationStaysPending(t *testing.T) {
	api := newFakeAPI()
	api.lost = true
	w := loadedWidget(t, api)
	ctx := context.Background()
	require.NoError(t, w.StartWith(ctx, "biz-9"))

	err := w.Send(ctx, "Hello")

	assert.True(t, apperr.IsKind(err, apperr.Transport))
	st := w.State()
	assert.Empty(t, st.ActiveID)
	assert.Equal(t, "biz-9", st.PendingRecipient)
	_, pending := st.Messages[PendingKey]
	assert.True(t, pending)
	assert.Empty(t, st.Messages[PendingKey])
	assert.NotEmpty(t, st.Banner)
	assert.Zero(t, api.count("GetMessages:"))
}

// Two sends to a pending recipient before the first is answered both go out
// with the recipient id. Nothing dedupes them, so two conversations appear.
func TestSend_DoubleSubmitBeforeResolutionCreatesTwoConversations(t *testing.T) {
	api := newFakeAPI()
	w := loadedWidget(t, api)
	ctx := context.Background()
	require.NoError(t, w.StartWith(ctx, "biz-9"))
	api.hold()

	var wg sync.WaitGroup
	for _, text := range []string{"first", "second"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Send(ctx, text))
		}()
	}
	<-api.entered
	<-api.entered

	assert.Len(t, w.State().Messages[PendingKey], 2)

	api.release()
	wg.Wait()

	assert.Equal(t, 2, api.created)
	for _, s := range api.sends {
		assert.Equal(t, "biz-9", s.RecipientID)
	}
	assert.Len(t, w.State().Conversations, 2)
}

func TestSend_OptimisticMessageReplacedByServer(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	w := loadedWidget(t, api)
	ctx := context.Background()
	require.NoError(t, w.Select(ctx, "c1"))
	api.hold()

	done := make(chan error, 1)
	go func() { done <- w.Send(ctx, "hello") }()
	<-api.entered

	thread := w.State().Thread()
	require.Len(t, thread, 1)
	assert.True(t, strings.HasPrefix(thread[0].ID, "tmp-"))
	assert.Equal(t, models.StatusSent, thread[0].Status)
	assert.Equal(t, models.SenderMe, thread[0].Sender)

	api.release()
	require.NoError(t, <-done)

	thread = w.State().Thread()
	require.Len(t, thread, 1)
	assert.Equal(t, "m-1", thread[0].ID)
	assert.Equal(t, models.StatusDelivered, thread[0].Status)
	assert.Equal(t, 1, api.count("GetMessages:c1"))
}

func TestSend_NoEchoReloadsThread(t *testing.T) {
	api := newFakeAPI()
	api.echo = false
	api.addConversation("c1", "biz-1")
	w := loadedWidget(t, api)
	ctx := context.Background()
	require.NoError(t, w.Select(ctx, "c1"))

	require.NoError(t, w.Send(ctx, "hello"))

	assert.Equal(t, 2, api.count("GetMessages:c1"))
	thread := w.State().Thread()
	require.Len(t, thread, 1)
	assert.Equal(t, "m-1", thread[0].ID)
}

func TestSend_FailureDropsOptimisticMessage(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	api.fail["Send"] = apperr.TransportError("rate limited", 429, nil)
	w := loadedWidget(t, api)
	ctx := context.Background()
	require.NoError(t, w.Select(ctx, "c1"))

	err := w.Send(ctx, "hello")

	require.Error(t, err)
	st := w.State()
	assert.Empty(t, st.Thread())
	assert.Equal(t, "Message not sent: rate limited", st.Banner)
	assert.Equal(t, 1, api.count("Send"))
}

func TestSend_Rejected(t *testing.T) {
	api := newFakeAPI()
	w := loadedWidget(t, api)

	assert.True(t, apperr.Is(w.Send(context.Background(), "   "), "EMPTY_MESSAGE"))
	assert.True(t, apperr.Is(w.Send(context.Background(), "hi"), "NO_CONVERSATION"))
	assert.Zero(t, api.count("Send"))
}

// --- Refresh and polling ---

func TestRefresh_ActiveConversation(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	api.addConversation("c2", "biz-2")
	w := loadedWidget(t, api)
	ctx := context.Background()
	require.NoError(t, w.Select(ctx, "c2"))

	require.NoError(t, w.Refresh(ctx))
	assert.Equal(t, "c2", w.State().ActiveID)

	require.NoError(t, api.Delete(ctx, "c2"))
	require.NoError(t, w.Refresh(ctx))
	assert.Empty(t, w.State().ActiveID)
	assert.Len(t, w.State().Conversations, 1)
}

func TestPoll_StopsOnCancel(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	w := NewWidget(api, me, 5*time.Millisecond)
	require.NoError(t, w.Select(context.Background(), "c1"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Poll(ctx) }()

	require.Eventually(t, func() bool { return api.count("ListConversations") >= 2 }, time.Second, time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, "c1", w.State().ActiveID)
	assert.GreaterOrEqual(t, api.count("GetMessages:c1"), 2)
}

func TestNewWidget_DefaultInterval(t *testing.T) {
	w := NewWidget(newFakeAPI(), me, 0)
	assert.Equal(t, DefaultPollInterval, w.interval)
}

// --- Confirmation gate ---

func TestConfirm_DeleteActiveConversation(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	w := loadedWidget(t, api)
	ctx := context.Background()
	require.NoError(t, w.Select(ctx, "c1"))

	w.RequestConfirm(ActionDelete, "c1")
	st := w.State()
	assert.Equal(t, ActionDelete, st.ConfirmAction)
	assert.Equal(t, "c1", st.ConfirmCID)
	assert.Zero(t, api.count("Delete:c1"))

	require.NoError(t, w.Confirm(ctx, ""))

	st = w.State()
	assert.Equal(t, 1, api.count("Delete:c1"))
	assert.Empty(t, st.ActiveID)
	assert.Empty(t, st.ConfirmAction)
	assert.Empty(t, st.Conversations)
}

func TestConfirm_DismissSendsNothing(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	w := loadedWidget(t, api)

	w.RequestConfirm(ActionBlock, "c1")
	w.Dismiss()

	err := w.Confirm(context.Background(), "")
	assert.True(t, apperr.Is(err, "NOTHING_TO_CONFIRM"))
	assert.Zero(t, api.count("Block:c1"))
}

func TestConfirm_ReportNeedsReason(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	w := loadedWidget(t, api)
	ctx := context.Background()

	w.RequestConfirm(ActionReport, "c1")
	assert.True(t, apperr.Is(w.Confirm(ctx, " "), "REASON_REQUIRED"))
	assert.Equal(t, ActionReport, w.State().ConfirmAction)

	require.NoError(t, w.Confirm(ctx, "spam"))
	assert.Equal(t, 1, api.count("Report:c1:spam"))
}

func TestConfirm_FailureSetsBanner(t *testing.T) {
	api := newFakeAPI()
	api.addConversation("c1", "biz-1")
	api.fail["Clear"] = apperr.TransportError("forbidden", 403, nil)
	w := loadedWidget(t, api)

	w.RequestConfirm(ActionClear, "c1")
	err := w.Confirm(context.Background(), "")

	require.Error(t, err)
	assert.Equal(t, "Could not clear conversation: forbidden", w.State().Banner)
}

func TestDerive(t *testing.T) {
	m := Derive(models.Message{SenderID: "other", IsRead: true}, me)
	assert.Equal(t, models.SenderThem, m.Sender)
	assert.Equal(t, models.StatusRead, m.Status)

	m = Derive(models.Message{SenderID: me}, me)
	assert.Equal(t, models.SenderMe, m.Sender)
	assert.Equal(t, models.StatusDelivered, m.Status)
}
