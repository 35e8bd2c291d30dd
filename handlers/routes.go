package handlers

import (
	"github.com/labstack/echo/v4"

	mw "github.com/padraicbc/racelog/middleware"
)

// Routes registers the API under api. auth authenticates callers; authLimit
// is applied to the public /auth endpoints.
func (h *Handler) Routes(api *echo.Group, auth echo.MiddlewareFunc, authLimit ...echo.MiddlewareFunc) {
	a := api.Group("/auth", authLimit...)
	a.POST("/register", h.Register)
	a.POST("/login", h.Login)
	a.POST("/google", h.GoogleLogin)
	a.GET("/profile", h.Profile, auth)

	r := api.Group("/races", auth)
	r.GET("", h.ListRaces)
	r.POST("", h.CreateRace)
	r.GET("/stats", h.RaceStats)
	r.GET("/statistics", h.Statistics)
	r.GET("/upcoming", h.Upcoming)
	r.GET("/export", h.ExportRacesHandler)
	r.POST("/import", h.ImportRacesHandler)
	r.GET("/report", h.Report)
	r.GET("/:id", h.GetRace)
	r.PUT("/:id", h.UpdateRace)
	r.DELETE("/:id", h.DeleteRace)

	u := api.Group("/users", auth, mw.RequireAdmin)
	u.GET("", h.ListUsers)
	u.DELETE("/:id", h.DeleteUser)
}
