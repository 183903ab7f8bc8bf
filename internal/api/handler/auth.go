package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer  = "gurimarket-engine"
	adminRole    = "admin"
	adminIDKey   = "admin_id"
	bearerPrefix = "Bearer "
)

// GenerateAdminToken signs an HS256 admin token for subject.
func GenerateAdminToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": adminRole,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"iss":  tokenIssuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// parseAdminToken validates the token and returns its subject.
func parseAdminToken(secret []byte, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	if role, _ := claims["role"].(string); role != adminRole {
		return "", fmt.Errorf("role %q is not allowed", role)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// AuthRequired rejects requests without a valid admin bearer token.
// Browsers cannot set headers on WebSocket upgrades, so the token may also
// come in the access_token query param.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("access_token")
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
			tokenString = strings.TrimPrefix(auth, bearerPrefix)
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
			return
		}

		sub, err := parseAdminToken(h.JWTSecret, tokenString)
		if err != nil {
			h.Log.Warnw("Rejected admin token", "path", c.FullPath(), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}
		c.Set(adminIDKey, sub)
		c.Next()
	}
}
