// Package business is the client for the local-business API and the profile
// page built on it: the business record, followers, reviews and gallery
// reactions, with optimistic follow and like toggles.
package business

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

// SessionProvider supplies the signed-in user's session, if any.
type SessionProvider interface {
	Session() (auth.Session, bool)
}

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

// FollowerInfo is the follower count and whether the viewer follows.
type FollowerInfo struct {
	Count     int  `json:"count"`
	Following bool `json:"isFollowing"`
}

// FollowerUpdate is a follow or unfollow response. The API may answer with a
// bare acknowledgement or no body at all, so every field is optional.
type FollowerUpdate struct {
	Count     *int  `json:"count"`
	Following *bool `json:"isFollowing"`
}

// Apply overlays the fields the server returned onto info.
func (u FollowerUpdate) Apply(info FollowerInfo) FollowerInfo {
	if u.Count != nil {
		info.Count = *u.Count
	}
	if u.Following != nil {
		info.Following = *u.Following
	}
	return info
}

// ReactionUpdate is a like or unlike response, optional like FollowerUpdate.
type ReactionUpdate struct {
	Likes *int  `json:"likes"`
	Liked *bool `json:"userLiked"`
}

func (u ReactionUpdate) Apply(r models.Reaction) models.Reaction {
	if u.Likes != nil {
		r.Likes = *u.Likes
	}
	if u.Liked != nil {
		r.Liked = *u.Liked
	}
	return r
}

type ReviewPage struct {
	Reviews []models.Review    `json:"reviews"`
	Stats   models.ReviewStats `json:"statistics"`
}

type businessRecord struct {
	models.Business
	ServiceGalleries map[string]json.RawMessage `json:"serviceGalleries"`
}

func (c *Client) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	var envelope struct {
		Business *businessRecord `json:"business"`
	}
	body, err := c.get(ctx, c.path("businesses", id))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperr.TransportError("unexpected response", http.StatusOK, fmt.Errorf("decode business: %w", err))
	}
	rec := envelope.Business
	if rec == nil {
		// Some deployments return the record without an envelope.
		rec = &businessRecord{}
		if err := json.Unmarshal(body, rec); err != nil {
			return nil, apperr.TransportError("unexpected response", http.StatusOK, fmt.Errorf("decode business: %w", err))
		}
	}
	if rec.ID == "" {
		return nil, apperr.TransportError("Business not found", http.StatusNotFound, nil)
	}
	b := rec.Business
	if len(rec.ServiceGalleries) > 0 {
		b.Galleries = models.ParseGalleries(rec.ServiceGalleries)
	}
	return &b, nil
}

func (c *Client) GetFollowers(ctx context.Context, id string) (FollowerInfo, error) {
	var info FollowerInfo
	err := c.getJSON(ctx, c.path("businesses", id, "followers"), &info)
	return info, err
}

func (c *Client) GetReviews(ctx context.Context, id string) (ReviewPage, error) {
	var page ReviewPage
	err := c.getJSON(ctx, c.path("businesses", id, "reviews"), &page)
	return page, err
}

func (c *Client) GetReactions(ctx context.Context, id string) ([]models.Reaction, error) {
	var resp struct {
		Reactions []models.Reaction `json:"reactions"`
	}
	err := c.getJSON(ctx, c.path("businesses", id, "reactions"), &resp)
	return resp.Reactions, err
}

func (c *Client) Follow(ctx context.Context, id string) (FollowerUpdate, error) {
	var u FollowerUpdate
	err := c.send(ctx, http.MethodPost, c.path("businesses", id, "follow"), nil, &u)
	return u, err
}

func (c *Client) Unfollow(ctx context.Context, id string) (FollowerUpdate, error) {
	var u FollowerUpdate
	err := c.send(ctx, http.MethodDelete, c.path("businesses", id, "follow"), nil, &u)
	return u, err
}

func (c *Client) React(ctx context.Context, id, gallery string) (ReactionUpdate, error) {
	var u ReactionUpdate
	err := c.send(ctx, http.MethodPost, c.path("businesses", id, "reactions", gallery), nil, &u)
	return u, err
}

func (c *Client) Unreact(ctx context.Context, id, gallery string) (ReactionUpdate, error) {
	var u ReactionUpdate
	err := c.send(ctx, http.MethodDelete, c.path("businesses", id, "reactions", gallery), nil, &u)
	return u, err
}

func (c *Client) SubmitReview(ctx context.Context, id string, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.ValidationError("RATING_REQUIRED", "Please select a rating")
	}
	var resp struct {
		Review *models.Review `json:"review"`
	}
	payload := map[string]any{"rating": rating, "comment": comment}
	if err := c.send(ctx, http.MethodPost, c.path("businesses", id, "reviews"), payload, &resp); err != nil {
		return nil, err
	}
	return resp.Review, nil
}

// MarkHelpful returns the review's new helpful count.
func (c *Client) MarkHelpful(ctx context.Context, reviewID string) (int, error) {
	var resp struct {
		HelpfulCount int `json:"helpfulCount"`
	}
	err := c.send(ctx, http.MethodPost, c.path("reviews", reviewID, "helpful"), nil, &resp)
	return resp.HelpfulCount, err
}

func (c *Client) ReportReview(ctx context.Context, reviewID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperr.ValidationError("REASON_REQUIRED", "Please tell us why you are reporting this review")
	}
	return c.send(ctx, http.MethodPost, c.path("reviews", reviewID, "report"), map[string]any{"reason": reason}, nil)
}

func (c *Client) ReportBusiness(ctx context.Context, id, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperr.ValidationError("REASON_REQUIRED", "Please tell us why you are reporting this business")
	}
	return c.send(ctx, http.MethodPost, c.path("businesses", id, "report"), map[string]any{"reason": reason}, nil)
}

func (c *Client) path(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := httputil.NewJSONRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	// Reads are public; the session only personalizes flags like isFollowing.
	if sess, ok := c.session(); ok {
		sess.Apply(req)
	}
	return httputil.Do(c.httpClient, req)
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	body, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.TransportError("unexpected response", http.StatusOK, fmt.Errorf("decode %s: %w", u, err))
	}
	return nil
}

// send issues a write. Writes need a session and fail without a request
// when there is none.
func (c *Client) send(ctx context.Context, method, u string, payload, out any) error {
	sess, ok := c.session()
	if !ok {
		return apperr.UnauthorizedError("NO_SESSION", "Please sign in to continue")
	}
	req, err := httputil.NewJSONRequest(ctx, method, u, payload)
	if err != nil {
		return err
	}
	sess.Apply(req)
	return httputil.DoJSON(c.httpClient, req, out)
}

func (c *Client) session() (auth.Session, bool) {
	if c.sessions == nil {
		return auth.Session{}, false
	}
	return c.sessions.Session()
}
