package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const adminTokenHeader = "X-Admin-Token"

// sessionAuthMiddleware requires a session token issued for the :id route
// parameter. Image routes may pass the token as a query parameter.
func sessionAuthMiddleware(tokens *SessionTokens) gin.HandlerFunc {
	return tokenAuthMiddleware(tokens, "id")
}

// bookingAuthMiddleware accepts any valid session token. The handler checks
// that the booking was placed from that session.
func bookingAuthMiddleware(tokens *SessionTokens) gin.HandlerFunc {
	return tokenAuthMiddleware(tokens, "")
}

func tokenAuthMiddleware(tokens *SessionTokens, sessionParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing session token", nil))
			return
		}
		sessionID, err := tokens.Verify(token)
		if err != nil {
			abortWithAppError(c, err)
			return
		}
		if sessionParam != "" && sessionID != c.Param(sessionParam) {
			abortWithError(c, NewHTTPError(http.StatusForbidden, "forbidden", "token does not match session", nil))
			return
		}
		setSessionID(c, sessionID)
		c.Next()
	}
}

// adminAuthMiddleware guards operator endpoints with a shared secret sent in
// the X-Admin-Token header. Without a configured secret the endpoints are
// disabled.
func adminAuthMiddleware(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	return func(c *gin.Context) {
		if secret == "" {
			abortWithError(c, NewHTTPError(http.StatusForbidden, "forbidden", "admin endpoints are disabled", nil))
			return
		}
		given := strings.TrimSpace(c.GetHeader(adminTokenHeader))
		if given == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing admin token", nil))
			return
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "invalid_token", "invalid admin token", nil))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		token := strings.TrimSpace(c.Query("token"))
		return token, token != ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
