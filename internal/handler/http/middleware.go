package http

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/geloski43/edcommerce/pkg/httputil"
	"github.com/geloski43/edcommerce/pkg/logger"
)

type contextKey string

const profileKey contextKey = "session_profile"

// Header names the storefront client sends.
const (
	headerSessionID     = "X-Session-ID"
	headerCallbackToken = "X-Callback-Token"
	headerSyncSecret    = "X-Sync-Secret"
)

// ContentTypeJSON enforces a JSON content type on mutating requests.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SessionSyncer resolves a session token into a customer profile.
type SessionSyncer interface {
	Sync(ctx context.Context, sessionToken string) (*domain.UserProfile, error)
}

// SessionIdentity resolves the bearer session token on every request. An
// anonymous or unverifiable session passes through with an empty profile; a
// blocked account is stopped here with the redirect target on the error
// body.
func SessionIdentity(bridge SessionSyncer, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)

			profile, err := bridge.Sync(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, err, fallback)
				return
			}

			ctx := context.WithValue(r.Context(), profileKey, profile)
			if profile.Email != "" {
				ctx = logger.WithSessionEmail(ctx, profile.Email)
				l := logger.FromContext(ctx).With(slog.String("session_email", profile.Email))
				ctx = logger.NewContext(ctx, l)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileFromContext returns the synced session profile, or an empty profile
// for requests outside the identity middleware.
func ProfileFromContext(ctx context.Context) *domain.UserProfile {
	if p, ok := ctx.Value(profileKey).(*domain.UserProfile); ok && p != nil {
		return p
	}
	return &domain.UserProfile{PurchasedIDs: []int{}}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return ""
}

// RequireSharedSecret gates a route group on a constant-time header
// comparison. Used for the payment callback and the catalog sync endpoints.
// An empty secret rejects every caller: the gate stays closed until the
// operator configures one.
func RequireSharedSecret(header, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid or missing credential"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
