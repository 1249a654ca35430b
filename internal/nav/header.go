// Package nav holds the header and sidebar chrome: the category menu and the
// signed-in state shown in the header.
package nav

import (
	"context"
	"log"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/models"
)

// SessionSource is one auth service the header can ask about the current user.
type SessionSource interface {
	Name() string
	CurrentUser(ctx context.Context) (*models.User, error)
}

type LoginState struct {
	SignedIn bool         `json:"signed_in"`
	Source   string       `json:"source,omitempty"`
	User     *models.User `json:"user,omitempty"`
}

// Greeting is the header's account label.
func (s LoginState) Greeting() string {
	if !s.SignedIn || s.User == nil {
		return "Sign in"
	}
	name := s.User.Name
	if name == "" {
		name = s.User.Email
	}
	return "Hi, " + name
}

type Header struct {
	sources []SessionSource
}

// NewHeader consults sources in order.
func NewHeader(sources ...SessionSource) *Header {
	return &Header{sources: sources}
}

// LoginState reports the first source with a signed-in user. A failing source
// counts as signed out.
func (h *Header) LoginState(ctx context.Context) LoginState {
	for _, src := range h.sources {
		user, err := src.CurrentUser(ctx)
		if err != nil {
			if !apperr.IsKind(err, apperr.Unauthorized) {
				log.Printf("[nav] %s session check failed: %v", src.Name(), err)
			}
			continue
		}
		if user != nil {
			return LoginState{SignedIn: true, Source: src.Name(), User: user}
		}
	}
	return LoginState{}
}
