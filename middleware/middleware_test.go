package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/repository/memory"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newUser(t *testing.T, users *memory.UserStore, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: "Runner", Email: email, Password: "x", Role: role}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

// serve runs h behind mw for a request carrying the given Authorization header.
func serve(t *testing.T, auth string, h echo.HandlerFunc, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return rec, h(c)
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, code, he.Code)
}

func TestIssueAndParseToken(t *testing.T) {
	u := &models.User{ID: uuid.New(), Email: "a@b.co"}
	tok, err := IssueToken(testKey, u, time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := ParseToken(testKey, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, "a@b.co", claims.Email)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Contains(t, claims.Audience, Audience)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	u := &models.User{ID: uuid.New(), Email: "a@b.co"}

	expired, err := IssueToken(testKey, u, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = ParseToken(testKey, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	tok, err := IssueToken([]byte("some-other-secret-key-0000000000"), u, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = ParseToken(testKey, tok)
	assert.Error(t, err)

	wrongAud := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: u.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{"someone-else"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := wrongAud.SignedString(testKey)
	require.NoError(t, err)
	_, err = ParseToken(testKey, signed)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	users := memory.NewUserStore(nil)
	u := newUser(t, users, "runner@example.com", models.RoleUser)
	tok, err := IssueToken(testKey, u, time.Hour, time.Now())
	require.NoError(t, err)

	var got *AuthUser
	ok := func(c echo.Context) error {
		got, _ = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	}

	rec, err := serve(t, "Bearer "+tok, ok, JWT(testKey, users))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "runner@example.com", got.Email)
	assert.Equal(t, models.RoleUser, got.Role)

	_, err = serve(t, "", ok, JWT(testKey, users))
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = serve(t, tok, ok, JWT(testKey, users))
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = serve(t, "Bearer not.a.token", ok, JWT(testKey, users))
	assertStatus(t, err, http.StatusUnauthorized)

	require.NoError(t, users.Delete(context.Background(), u.ID))
	_, err = serve(t, "Bearer "+tok, ok, JWT(testKey, users))
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestRequireAdmin(t *testing.T) {
	users := memory.NewUserStore(nil)
	plain := newUser(t, users, "user@example.com", models.RoleUser)
	admin := newUser(t, users, "admin@example.com", models.RoleAdmin)
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	plainTok, err := IssueToken(testKey, plain, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = serve(t, "Bearer "+plainTok, ok, JWT(testKey, users), RequireAdmin)
	assertStatus(t, err, http.StatusForbidden)

	adminTok, err := IssueToken(testKey, admin, time.Hour, time.Now())
	require.NoError(t, err)
	rec, err := serve(t, "Bearer "+adminTok, ok, JWT(testKey, users), RequireAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = serve(t, "", ok, RequireAdmin)
	assertStatus(t, err, http.StatusUnauthorized)
}

type countingLookup struct {
	UserLookup
	calls int
}

func (c *countingLookup) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	c.calls++
	return c.UserLookup.GetByID(ctx, id)
}

func TestUserCache(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserStore(nil)
	u := newUser(t, users, "cached@example.com", models.RoleUser)
	lookup := &countingLookup{UserLookup: users}
	uc := NewUserCache(lookup, time.Minute)

	for range 3 {
		got, err := uc.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, got.Email)
	}
	assert.Equal(t, 1, lookup.calls)

	uc.Forget(u.ID)
	_, err := uc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, lookup.calls)

	_, err = uc.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserCacheDisabled(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserStore(nil)
	u := newUser(t, users, "nocache@example.com", models.RoleUser)
	lookup := &countingLookup{UserLookup: users}
	uc := NewUserCache(lookup, 0)

	_, err := uc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	_, err = uc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, lookup.calls)
	uc.Forget(u.ID)
}

func TestRateLimit(t *testing.T) {
	mw, err := RateLimit("2-M", "test")
	require.NoError(t, err)
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	for i := range 2 {
		rec, err := serve(t, "", ok, mw)
		require.NoError(t, err, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec, err := serve(t, "", ok, mw)
	assertStatus(t, err, http.StatusTooManyRequests)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	_, err = RateLimit("lots", "test")
	assert.Error(t, err)
}
