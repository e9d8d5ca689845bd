package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/velora-shop/velora/internal/models"
)

// Middleware validates the access token from the accessToken cookie or an
// Authorization bearer header and puts userID/role into the echo context.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: "HS256",
		TokenLookup:   "cookie:accessToken,header:Authorization:Bearer ",
		SuccessHandler: func(c echo.Context) {
			if tok, ok := c.Get("user").(*jwt.Token); ok {
				if claims, ok := tok.Claims.(jwt.MapClaims); ok {
					setUserContext(c, claims)
				}
			}
		},
	})
}

func setUserContext(c echo.Context, claims jwt.MapClaims) {
	if sub, ok := claims["sub"].(float64); ok {
		c.Set("userID", uint(sub))
	}
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("role").(string)
		if role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
		}
		return next(c)
	}
}

// Identity returns the caller's user id and role set by Middleware.
func Identity(c echo.Context) (uint, string, error) {
	userID, ok := c.Get("userID").(uint)
	if !ok || userID == 0 {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	role, _ := c.Get("role").(string)
	return userID, role, nil
}

func CreateCookie(name string, value string, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
