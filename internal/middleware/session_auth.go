package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pulseapp/pulse-server/internal/models"
)

const viewerContextKey = "viewer"

// SessionCookie is the cookie the external auth service stores the
// session token in.
const SessionCookie = "session"

// Viewer returns the identity resolved for the request. The zero value
// means anonymous.
func Viewer(c echo.Context) models.Viewer {
	viewer, ok := c.Get(viewerContextKey).(models.Viewer)
	if !ok {
		return models.Viewer{}
	}
	return viewer
}

// ResolveViewer extracts the viewer identity from the session token, taken
// from the session cookie or a bearer Authorization header. Authentication
// itself belongs to the external auth service; any missing or invalid
// token simply leaves the request anonymous.
func ResolveViewer(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := sessionToken(c)
			if tokenString == "" {
				return next(c)
			}

			claims := &models.SessionClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenUnverifiable
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return next(c)
			}

			c.Set(viewerContextKey, models.Viewer{
				ID:            claims.UserID,
				Username:      claims.Username,
				Authenticated: true,
			})
			return next(c)
		}
	}
}

// LoginRequired redirects anonymous requests to the login endpoint with a
// next parameter holding the originally requested path, query included,
// so the auth service can send the user back after signing in.
func LoginRequired(loginURL string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !Viewer(c).Authenticated {
				query := url.Values{"next": {c.Request().RequestURI}}
				return c.Redirect(http.StatusFound, loginURL+"?"+query.Encode())
			}
			return next(c)
		}
	}
}

func sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
