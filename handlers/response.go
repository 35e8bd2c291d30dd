package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	mw "github.com/padraicbc/racelog/middleware"
	"github.com/padraicbc/racelog/models"
)

// envelope wraps every JSON response.
type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []models.FieldError `json:"errors,omitempty"`
	Total   *int                `json:"total,omitempty"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, envelope{Success: true, Message: message, Data: data})
}

// ErrorHandler renders handler errors as envelopes. Validation errors become
// 400 with field details, missing records 404, echo errors keep their code,
// and anything else is logged and reported as an opaque 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := errorResponse(err)
		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.Warn("writing error response", zap.Error(err))
		}
	}
}

func errorResponse(err error) (int, envelope) {
	var (
		ve *models.ValidationError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, envelope{Message: "invalid input", Errors: ve.Errors}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, envelope{Message: "not found"}
	case errors.As(err, &he):
		if he.Code >= http.StatusInternalServerError && he.Code != http.StatusServiceUnavailable {
			return he.Code, envelope{Message: "internal server error"}
		}
		return he.Code, envelope{Message: fmt.Sprint(he.Message)}
	default:
		return http.StatusInternalServerError, envelope{Message: "internal server error"}
	}
}

// currentUser returns the authenticated caller or a 401.
func currentUser(c echo.Context) (*mw.AuthUser, error) {
	u, ok := mw.CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	}
	return u, nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, models.NewValidationError("id", "invalid id")
	}
	return id, nil
}
