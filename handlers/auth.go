package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/padraicbc/racelog/middleware"
	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/oauth"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72,password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleRequest struct {
	Token string `json:"token" validate:"required"`
}

type session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type profile struct {
	User *models.User `json:"user"`
}

// HashPassword returns a bcrypt hash of password for storage.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *Handler) issue(c echo.Context, code int, message string, user *models.User) error {
	token, err := mw.IssueToken(h.JWTKey, user, h.TokenTTL, h.now())
	if err != nil {
		return err
	}
	return respond(c, code, message, session{User: user, Token: token})
}

// Register handles POST /auth/register.
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(&req); err != nil {
		return err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return err
	}
	user := &models.User{Name: req.Name, Email: req.Email, Password: hash, Role: models.RoleUser}
	err = h.users.Create(c.Request().Context(), user)
	if errors.Is(err, models.ErrEmailTaken) {
		return models.NewValidationError("email", "a user with this email already exists")
	}
	if err != nil {
		return err
	}

	return h.issue(c, http.StatusCreated, "user registered", user)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(&req); err != nil {
		return err
	}

	user, err := h.users.GetByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, models.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, models.ErrInvalidCredentials.Error())
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, models.ErrInvalidCredentials.Error())
	}

	return h.issue(c, http.StatusOK, "login successful", user)
}

// GoogleLogin handles POST /auth/google. The first sign-in creates the
// account; later ones link the Google identity to an existing email.
func (h *Handler) GoogleLogin(c echo.Context) error {
	if h.google == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "google sign-in is not configured")
	}

	var req googleRequest
	if err := bindStrict(c, &req); err != nil {
		return err
	}
	if err := validateStruct(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	id, err := h.google.Verify(ctx, req.Token)
	switch {
	case errors.Is(err, oauth.ErrInvalidToken), errors.Is(err, oauth.ErrWrongAudience):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid google token")
	case errors.Is(err, oauth.ErrIncomplete):
		return models.NewValidationError("token", "google profile is missing email or name")
	case err != nil:
		return err
	}

	user, err := h.users.GetByEmail(ctx, id.Email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		// The account gets an unguessable password; it signs in through Google.
		hash, err := HashPassword(uuid.NewString())
		if err != nil {
			return err
		}
		user = &models.User{
			Name:     id.Name,
			Email:    normalizeEmail(id.Email),
			Password: hash,
			Role:     models.RoleUser,
			GoogleID: id.Subject,
			Avatar:   id.Picture,
		}
		if err := h.users.Create(ctx, user); err != nil {
			return err
		}
		h.log.Info("google account created", zap.String("user_id", user.ID.String()))
	case err != nil:
		return err
	case user.GoogleID == "":
		user.GoogleID = id.Subject
		user.Avatar = id.Picture
		if err := h.users.Save(ctx, user); err != nil {
			return err
		}
	}

	return h.issue(c, http.StatusOK, "google login successful", user)
}

// Profile handles GET /auth/profile.
func (h *Handler) Profile(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetByID(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", profile{User: user})
}
