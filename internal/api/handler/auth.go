package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/localization"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwt "github.com/golang-jwt/jwt/v5"
)

const participantKey = "participant_id"

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenIssuer signs and checks the anonymous session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token carrying anonID.
func (t *TokenIssuer) Issue(anonID string) (string, error) {
	claims := jwt.MapClaims{
		"anon_id": anonID,
		"exp":     time.Now().Add(t.ttl).Unix(),
		"iss":     config.TokenIssuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates the token and returns the anonymous id inside it.
func (t *TokenIssuer) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	anonID, _ := claims["anon_id"].(string)
	if anonID == "" {
		return "", ErrInvalidToken
	}
	return anonID, nil
}

func newAnonID() string {
	return "a-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// tokenFromRequest looks at the Authorization header, then the session cookie, then the
// token query parameter (browsers cannot set headers on WebSocket upgrades).
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie(config.TokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// GetAnonID returns the caller's anonymous id and a fresh token. A caller with a valid
// token keeps their id.
func (h *Handler) GetAnonID(c *gin.Context) {
	anonID := ""
	if tok := tokenFromRequest(c); tok != "" {
		if id, err := h.Auth.Parse(tok); err == nil {
			anonID = id
		}
	}
	if anonID == "" {
		anonID = newAnonID()
	}

	token, err := h.Auth.Issue(anonID)
	if err != nil {
		h.log.Errorf("Failed to create token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(config.TokenCookieName, token, int(h.Auth.ttl.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": token, "anon_id": anonID})
}

// RequireParticipant rejects requests without a valid session token.
func (h *Handler) RequireParticipant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := tokenFromRequest(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
			return
		}
		anonID, err := h.Auth.Parse(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "session expired",
				"message": h.text(c, localization.KeySessionExpired),
			})
			return
		}
		c.Set(participantKey, anonID)
		c.Next()
	}
}

func participantID(c *gin.Context) string {
	return c.GetString(participantKey)
}
