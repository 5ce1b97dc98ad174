package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geloski43/edcommerce/internal/catalog"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

const testSecret = "session-secret"

type fakeUsers struct {
	user *catalog.User
	err  error
}

func (f *fakeUsers) FindUserByEmail(context.Context, string) (*catalog.User, error) {
	return f.user, f.err
}

func signSession(t *testing.T, email string) string {
	t.Helper()
	claims := &SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newTestBridge(users UserFinder) *Bridge {
	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewBridge(NewVerifier(testSecret, ""), users, "/blocked", l)
}

func TestSync_NoToken_ClearsProfile(t *testing.T) {
	b := newTestBridge(&fakeUsers{})

	profile, err := b.Sync(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
	assert.Empty(t, profile.PurchasedIDs)
}

func TestSync_InvalidToken_ClearsProfile(t *testing.T) {
	b := newTestBridge(&fakeUsers{})

	profile, err := b.Sync(context.Background(), "not-a-jwt")
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
}

func TestSync_WrongKey_ClearsProfile(t *testing.T) {
	claims := &SessionClaims{Email: "alice@example.com"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	b := newTestBridge(&fakeUsers{})
	profile, err := b.Sync(context.Background(), token)
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
}

func TestSync_NoCatalogRecord_EmptyPurchased(t *testing.T) {
	b := newTestBridge(&fakeUsers{user: nil})

	profile, err := b.Sync(context.Background(), signSession(t, "new@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", profile.Email)
	assert.NotNil(t, profile.PurchasedIDs)
	assert.Empty(t, profile.PurchasedIDs)
	assert.False(t, profile.Blocked)
}

func TestSync_KnownUser_ProfilePopulated(t *testing.T) {
	b := newTestBridge(&fakeUsers{user: &catalog.User{
		ID:           7,
		Email:        "alice@example.com",
		PurchasedIDs: []int{1, 3},
	}})

	profile, err := b.Sync(context.Background(), signSession(t, "alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, 7, profile.CatalogID)
	assert.Equal(t, []int{1, 3}, profile.PurchasedIDs)
}

func TestSync_BlockedUser_ClearsAndRedirects(t *testing.T) {
	b := newTestBridge(&fakeUsers{user: &catalog.User{
		ID:      7,
		Email:   "mallory@example.com",
		Blocked: true,
	}})

	profile, err := b.Sync(context.Background(), signSession(t, "mallory@example.com"))
	require.Error(t, err)
	assert.Empty(t, profile.Email)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ACCOUNT_BLOCKED", appErr.Code)
	assert.Equal(t, "/blocked", appErr.Redirect)
}

func TestSync_CatalogDown_KeepsPreviousProfile(t *testing.T) {
	users := &fakeUsers{user: &catalog.User{
		ID:           7,
		Email:        "alice@example.com",
		PurchasedIDs: []int{1},
	}}
	b := newTestBridge(users)
	ctx := context.Background()
	token := signSession(t, "alice@example.com")

	first, err := b.Sync(ctx, token)
	require.NoError(t, err)
	require.Equal(t, []int{1}, first.PurchasedIDs)

	users.user = nil
	users.err = errors.New("catalog unreachable")

	second, err := b.Sync(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, first.PurchasedIDs, second.PurchasedIDs)
	assert.Equal(t, 7, second.CatalogID)
}

func TestSync_CatalogDown_NoPreviousProfile(t *testing.T) {
	b := newTestBridge(&fakeUsers{err: errors.New("catalog unreachable")})

	profile, err := b.Sync(context.Background(), signSession(t, "alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Empty(t, profile.PurchasedIDs)
}
