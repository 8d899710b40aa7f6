package handlers

import (
	"github.com/aischool/dashboard/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext extracts the authenticated user id set by the JWT
// middleware; returns "" when the request is unauthenticated.
func getUserIDFromContext(c echo.Context) string {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return ""
	}
	return claims.UserID
}
