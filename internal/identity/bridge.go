package identity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/geloski43/edcommerce/internal/catalog"
	"github.com/geloski43/edcommerce/internal/domain"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

// UserFinder is the catalog lookup the bridge depends on.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*catalog.User, error)
}

// Bridge reconciles the identity provider's session with the catalog's
// customer record. It keeps the last good profile per email so a catalog
// outage degrades to stale-but-available instead of signing the user out.
type Bridge struct {
	verifier    *Verifier
	users       UserFinder
	blockedURL  string
	logger      *slog.Logger
	mu          sync.RWMutex
	lastProfile map[string]*domain.UserProfile
}

// NewBridge creates an identity bridge. blockedURL is the destination a
// blocked customer is redirected to; it must never be the default landing
// page.
func NewBridge(verifier *Verifier, users UserFinder, blockedURL string, logger *slog.Logger) *Bridge {
	return &Bridge{
		verifier:    verifier,
		users:       users,
		blockedURL:  blockedURL,
		logger:      logger,
		lastProfile: make(map[string]*domain.UserProfile),
	}
}

// Sync resolves the session token into a user profile.
//
// No or invalid token clears the profile. A blocked catalog record clears
// the profile and returns a termination error carrying the blocked redirect.
// A catalog failure keeps the previous profile for the session's email.
func (b *Bridge) Sync(ctx context.Context, sessionToken string) (*domain.UserProfile, error) {
	if sessionToken == "" {
		return &domain.UserProfile{}, nil
	}

	claims, err := b.verifier.Verify(sessionToken)
	if err != nil {
		b.logger.InfoContext(ctx, "session token rejected, clearing profile",
			slog.String("error", err.Error()),
		)
		return &domain.UserProfile{}, nil
	}

	email := claims.Email

	user, err := b.users.FindUserByEmail(ctx, email)
	if err != nil {
		// Stale-but-available: a catalog outage must not sign the user out.
		b.logger.WarnContext(ctx, "catalog lookup failed, keeping previous profile",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		if prev := b.previous(email); prev != nil {
			return prev, nil
		}
		return &domain.UserProfile{Email: email, PurchasedIDs: []int{}}, nil
	}

	if user == nil {
		profile := &domain.UserProfile{Email: email, PurchasedIDs: []int{}}
		b.remember(email, profile)
		return profile, nil
	}

	if user.Blocked {
		b.forget(email)
		b.logger.WarnContext(ctx, "blocked account attempted session sync",
			slog.String("email", email),
		)
		return &domain.UserProfile{}, apperrors.Blocked(b.blockedURL)
	}

	profile := &domain.UserProfile{
		Email:        email,
		CatalogID:    user.ID,
		PurchasedIDs: user.PurchasedIDs,
		Blocked:      false,
	}
	if profile.PurchasedIDs == nil {
		profile.PurchasedIDs = []int{}
	}
	b.remember(email, profile)
	return profile, nil
}

func (b *Bridge) previous(email string) *domain.UserProfile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastProfile[email]
}

func (b *Bridge) remember(email string, p *domain.UserProfile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastProfile[email] = p
}

func (b *Bridge) forget(email string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.lastProfile, email)
}
