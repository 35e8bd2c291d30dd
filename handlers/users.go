package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListUsers handles GET /users (admin): every user with a race count.
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	total := len(users)
	return c.JSON(http.StatusOK, envelope{Success: true, Data: users, Total: &total})
}

// DeleteUser handles DELETE /users/:id (admin). Admins cannot delete
// themselves, and users who still own races are kept.
func (h *Handler) DeleteUser(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if id == caller.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "you cannot delete your own account")
	}

	ctx := c.Request().Context()
	if _, err := h.users.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := h.races.Count(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("cannot delete user: they have %d race(s); delete or transfer them first", n))
	}

	if err := h.users.Delete(ctx, id); err != nil {
		return err
	}
	if h.cache != nil {
		h.cache.Forget(id)
	}
	h.log.Info("user deleted", zap.String("user_id", id.String()), zap.String("by", caller.ID.String()))

	return respond(c, http.StatusOK, "user deleted", nil)
}
