package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"social-reward-engine/infrastructure/logger"
)

const (
	HeaderAPIKey = "X-API-Key"

	// ContextSubject holds the admin token's subject for handlers.
	ContextSubject = "admin_subject"
)

// AdminAuth accepts an HS256 bearer token signed with secretKey. Without a
// secret every request is refused.
func AdminAuth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if secretKey == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin authentication not configured"})
			return
		}
		raw, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		var claims jwt.RegisteredClaims
		token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			logger.GetLogger().WithField("path", ctx.FullPath()).WithField("error", fmt.Sprint(err)).Warn("admin token rejected")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": rejectReason(err)})
			return
		}

		ctx.Set(ContextSubject, claims.Subject)
		ctx.Next()
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "That's not even a token"
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return "Timing is everything"
	case err != nil:
		return fmt.Sprintf("Couldn't handle this token: %v", err)
	}
	return "Unauthorized"
}

// ServiceAPIKey guards service-to-service routes. The key travels in
// X-API-Key or as a bearer token. An empty key disables the check.
func ServiceAPIKey(apiKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if apiKey == "" {
			ctx.Next()
			return
		}
		got := ctx.GetHeader(HeaderAPIKey)
		if got == "" {
			got, _ = bearerToken(ctx.GetHeader("Authorization"))
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			return
		}
		ctx.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}
