package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/padraicbc/racelog/models"
)

const (
	Issuer   = "racelog"
	Audience = "racelog-users"

	authUserKey = "auth_user"
)

// Claims extends jwt.RegisteredClaims with application-specific fields.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthUser is the authenticated caller attached to the request context.
type AuthUser struct {
	ID    uuid.UUID
	Email string
	Role  models.Role
}

// UserLookup resolves the user behind a token.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// IssueToken signs an HS256 token for user valid for ttl from now.
func IssueToken(key []byte, user *models.User, ttl time.Duration, now time.Time) (string, error) {
	claims := &Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(key []byte, token string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// JWT returns an Echo middleware that validates the bearer token in the
// Authorization header and checks the user still exists.
func JWT(key []byte, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token required")
			}

			claims, err := ParseToken(key, token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			id, err := uuid.Parse(claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			user, err := users.GetByID(c.Request().Context(), id)
			if errors.Is(err, models.ErrNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
			}
			if err != nil {
				return err
			}

			c.Set(authUserKey, &AuthUser{ID: user.ID, Email: user.Email, Role: user.Role})
			return next(c)
		}
	}
}

// CurrentUser returns the caller set by JWT.
func CurrentUser(c echo.Context) (*AuthUser, bool) {
	u, ok := c.Get(authUserKey).(*AuthUser)
	return u, ok && u != nil
}

// RequireAdmin rejects callers without the admin role. It must run after JWT.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, ok := CurrentUser(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
		}
		if u.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}
