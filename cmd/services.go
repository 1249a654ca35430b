package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lukman83/pricehub/internal/alert"
	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/auth"
	"github.com/lukman83/pricehub/internal/business"
	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/chat"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/lukman83/pricehub/internal/nav"
	"github.com/lukman83/pricehub/internal/state"
)

// services bundles the backend clients a command may need. All of them share
// one HTTP client and one state file.
type services struct {
	source   catalog.Source
	store    *state.Store
	auth     *auth.Client
	owner    *business.OwnerAuth
	business *business.Client
	alerts   *alert.Client
	chat     *chat.Client
}

func newServices() (*services, error) {
	client, err := buildHTTPClient()
	if err != nil {
		return nil, err
	}
	src, err := sourceFor(client)
	if err != nil {
		return nil, err
	}

	store, err := state.Open(cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	sessionID, err := store.ChatSessionID()
	if err != nil {
		return nil, fmt.Errorf("chat session: %w", err)
	}

	authClient := auth.NewClient(client, cfg.AuthURL, cfg.AnonKey, store)
	return &services{
		source:   src,
		store:    store,
		auth:     authClient,
		owner:    business.NewOwnerAuth(client, cfg.BusinessURL, store),
		business: business.NewClient(client, cfg.BusinessURL, authClient),
		alerts:   alert.NewClient(client, cfg.AlertsURL, authClient),
		chat:     chat.NewClient(client, cfg.ChatURL, cfg.AnonKey, sessionID, authClient),
	}, nil
}

func (s *services) header() *nav.Header {
	return nav.NewHeader(s.auth, s.owner)
}

// requireUser returns the signed-in shopper or an error asking to log in.
// The current command line is remembered so login can point back to it.
func (s *services) requireUser(ctx context.Context) (*models.User, error) {
	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		if apperr.IsKind(err, apperr.Unauthorized) {
			if err := s.auth.SetReturnURL(strings.Join(os.Args[1:], " ")); err != nil {
				log.Printf("[cmd] remember command: %v", err)
			}
			return nil, fmt.Errorf("%s: run `pricehub auth login` first", apperr.UserMessage(err))
		}
		return nil, err
	}
	return user, nil
}
