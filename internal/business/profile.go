package business

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/models"
	"golang.org/x/sync/errgroup"
)

// ActionState tracks one optimistic action from click to server answer.
type ActionState int

const (
	ActionIdle ActionState = iota
	ActionPending
	ActionConfirmed
	ActionFailed
)

func (s ActionState) String() string {
	switch s {
	case ActionPending:
		return "pending"
	case ActionConfirmed:
		return "confirmed"
	case ActionFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrActionPending rejects a toggle while the previous one is in flight.
var ErrActionPending = errors.New("action already in progress")

const followAction = "follow"

func likeAction(gallery string) string { return "like:" + gallery }

// View is a point-in-time copy of the profile page state.
type View struct {
	Business  *models.Business           `json:"business"`
	Followers int                        `json:"followers"`
	Following bool                       `json:"following"`
	Reviews   []models.Review            `json:"reviews"`
	Stats     models.ReviewStats         `json:"statistics"`
	Reactions map[string]models.Reaction `json:"reactions"`
	Actions   map[string]string          `json:"actions,omitempty"`
}

// Profile drives the business profile page for one viewer.
type Profile struct {
	client   *Client
	viewerID string

	mu        sync.Mutex
	business  *models.Business
	followers FollowerInfo
	reviews   ReviewPage
	reactions map[string]models.Reaction
	actions   map[string]ActionState
}

// NewProfile builds a profile controller. viewerID is empty for anonymous
// visitors.
func NewProfile(client *Client, viewerID string) *Profile {
	return &Profile{
		client:    client,
		viewerID:  viewerID,
		reactions: make(map[string]models.Reaction),
		actions:   make(map[string]ActionState),
	}
}

// Load fetches the business record, then followers, reviews and reactions
// concurrently. Only the business record is required; the rest are logged
// and left empty on failure.
func (p *Profile) Load(ctx context.Context, id string) error {
	b, err := p.client.GetBusiness(ctx, id)
	if err != nil {
		return err
	}

	var (
		followers FollowerInfo
		reviews   ReviewPage
		reactions []models.Reaction
	)
	var g errgroup.Group
	g.Go(func() error {
		f, err := p.client.GetFollowers(ctx, id)
		if err != nil {
			log.Printf("[business] followers for %s: %v", id, err)
			return nil
		}
		followers = f
		return nil
	})
	g.Go(func() error {
		r, err := p.client.GetReviews(ctx, id)
		if err != nil {
			log.Printf("[business] reviews for %s: %v", id, err)
			return nil
		}
		reviews = r
		return nil
	})
	g.Go(func() error {
		r, err := p.client.GetReactions(ctx, id)
		if err != nil {
			log.Printf("[business] reactions for %s: %v", id, err)
			return nil
		}
		reactions = r
		return nil
	})
	_ = g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.business = b
	p.followers = followers
	p.reviews = reviews
	p.reactions = make(map[string]models.Reaction, len(reactions))
	for _, r := range reactions {
		p.reactions[r.Gallery] = r
	}
	p.actions = make(map[string]ActionState)
	return nil
}

func (p *Profile) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		Business:  p.business,
		Followers: p.followers.Count,
		Following: p.followers.Following,
		Reviews:   append([]models.Review(nil), p.reviews.Reviews...),
		Stats:     p.reviews.Stats,
		Reactions: make(map[string]models.Reaction, len(p.reactions)),
	}
	for k, r := range p.reactions {
		v.Reactions[k] = r
	}
	if len(p.actions) > 0 {
		v.Actions = make(map[string]string, len(p.actions))
		for k, s := range p.actions {
			v.Actions[k] = s.String()
		}
	}
	return v
}

// FollowState reports the state of the follow action.
func (p *Profile) FollowState() ActionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.actions[followAction]
}

func (p *Profile) LikeState(gallery string) ActionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.actions[likeAction(gallery)]
}

// ToggleFollow flips the follow state immediately, then settles on the
// server's answer. On failure the pre-click state is restored.
func (p *Profile) ToggleFollow(ctx context.Context) error {
	p.mu.Lock()
	if err := p.checkActionLocked(followAction, "You cannot follow your own business"); err != nil {
		p.mu.Unlock()
		return err
	}
	prev := p.followers
	next := prev
	next.Following = !prev.Following
	if next.Following {
		next.Count++
	} else if next.Count > 0 {
		next.Count--
	}
	p.followers = next
	p.actions[followAction] = ActionPending
	id := p.business.ID
	p.mu.Unlock()

	var (
		u   FollowerUpdate
		err error
	)
	if next.Following {
		u, err = p.client.Follow(ctx, id)
	} else {
		u, err = p.client.Unfollow(ctx, id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.followers = prev
		p.actions[followAction] = ActionFailed
		return err
	}
	// Fields the server omitted keep their optimistic values.
	p.followers = u.Apply(next)
	p.actions[followAction] = ActionConfirmed
	return nil
}

// ToggleLike flips the viewer's like on a gallery, settling like ToggleFollow.
func (p *Profile) ToggleLike(ctx context.Context, gallery string) error {
	key := likeAction(gallery)

	p.mu.Lock()
	if err := p.checkActionLocked(key, ""); err != nil {
		p.mu.Unlock()
		return err
	}
	prev, had := p.reactions[gallery]
	next := prev
	next.Gallery = gallery
	next.Liked = !prev.Liked
	if next.Liked {
		next.Likes++
	} else if next.Likes > 0 {
		next.Likes--
	}
	p.reactions[gallery] = next
	p.actions[key] = ActionPending
	id := p.business.ID
	p.mu.Unlock()

	var (
		u   ReactionUpdate
		err error
	)
	if next.Liked {
		u, err = p.client.React(ctx, id, gallery)
	} else {
		u, err = p.client.Unreact(ctx, id, gallery)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if had {
			p.reactions[gallery] = prev
		} else {
			delete(p.reactions, gallery)
		}
		p.actions[key] = ActionFailed
		return err
	}
	p.reactions[gallery] = u.Apply(next)
	p.actions[key] = ActionConfirmed
	return nil
}

// SubmitReview posts a review and reloads the review list and statistics.
func (p *Profile) SubmitReview(ctx context.Context, rating int, comment string) error {
	p.mu.Lock()
	err := p.checkOwnerLocked("You cannot review your own business")
	id := ""
	if p.business != nil {
		id = p.business.ID
	}
	p.mu.Unlock()
	if err != nil {
		return err
	}

	if _, err := p.client.SubmitReview(ctx, id, rating, comment); err != nil {
		return err
	}
	page, err := p.client.GetReviews(ctx, id)
	if err != nil {
		log.Printf("[business] reload reviews for %s: %v", id, err)
		return nil
	}
	p.mu.Lock()
	p.reviews = page
	p.mu.Unlock()
	return nil
}

// MarkHelpful records a helpful vote and updates the review's count.
func (p *Profile) MarkHelpful(ctx context.Context, reviewID string) error {
	count, err := p.client.MarkHelpful(ctx, reviewID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.reviews.Reviews {
		if p.reviews.Reviews[i].ID == reviewID {
			p.reviews.Reviews[i].HelpfulCount = count
		}
	}
	return nil
}

func (p *Profile) ReportReview(ctx context.Context, reviewID, reason string) error {
	return p.client.ReportReview(ctx, reviewID, reason)
}

func (p *Profile) ReportBusiness(ctx context.Context, reason string) error {
	p.mu.Lock()
	if p.business == nil {
		p.mu.Unlock()
		return apperr.ValidationError("NOT_LOADED", "Business profile is not loaded")
	}
	id := p.business.ID
	p.mu.Unlock()
	return p.client.ReportBusiness(ctx, id, reason)
}

func (p *Profile) checkActionLocked(key, ownMessage string) error {
	if p.business == nil {
		return apperr.ValidationError("NOT_LOADED", "Business profile is not loaded")
	}
	if p.viewerID == "" {
		return apperr.UnauthorizedError("NO_SESSION", "Please sign in to continue")
	}
	if ownMessage != "" {
		if err := p.checkOwnerLocked(ownMessage); err != nil {
			return err
		}
	}
	if p.actions[key] == ActionPending {
		return ErrActionPending
	}
	return nil
}

func (p *Profile) checkOwnerLocked(message string) error {
	if p.business == nil {
		return apperr.ValidationError("NOT_LOADED", "Business profile is not loaded")
	}
	if p.viewerID == "" {
		return apperr.UnauthorizedError("NO_SESSION", "Please sign in to continue")
	}
	if p.business.OwnerID != "" && p.business.OwnerID == p.viewerID {
		return apperr.UnauthorizedError("OWN_BUSINESS", message)
	}
	return nil
}
