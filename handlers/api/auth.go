package api

import (
	"fmt"
	"strings"
	"time"

	"commhub/config"
	"commhub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler is the gateway's own access gate. A single console passphrase,
// stored as a bcrypt hash in the config, opens a session; the LMS backend is
// reached with the service token regardless.
type AuthHandler struct {
	store  *session.Store
	config *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store *session.Store, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		store:  store,
		config: cfg,
	}
}

// HandleLogin verifies the console passphrase and opens a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	passphrase := strings.TrimSpace(req.Passphrase)
	if passphrase == "" {
		return utils.BadRequestError("Passphrase is required", nil)
	}
	if h.config.Auth.PasswordHash == "" {
		return utils.InternalServerError("Console access is not configured", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.config.Auth.PasswordHash), []byte(passphrase)); err != nil {
		utils.Log.Warn("Rejected console login from %s", c.IP())
		return utils.UnauthorizedError("Invalid passphrase", nil)
	}

	token, err := GenerateToken(h.config.Auth.JWTSecret, h.config.Auth.SessionTTL())
	if err != nil {
		return utils.InternalServerError("Failed to create session token", err)
	}

	sess, err := h.store.Get(c)
	if err != nil {
		return utils.InternalServerError("Session error", err)
	}
	sess.Set("authenticated", true)
	sess.Set("token", token)
	sess.SetExpiry(h.config.Auth.SessionTTL())
	if err := sess.Save(); err != nil {
		return utils.InternalServerError("Failed to save session", err)
	}

	utils.Log.Info("Console session opened from %s", c.IP())
	return c.JSON(fiber.Map{
		"success":    true,
		"expires_at": time.Now().Add(h.config.Auth.SessionTTL()).Format(time.RFC3339),
	})
}

// HandleLogout destroys the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return c.JSON(fiber.Map{"success": true})
	}
	if err := sess.Destroy(); err != nil {
		return utils.InternalServerError("Error during logout", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// GenerateToken issues a signed session token.
func GenerateToken(secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": "console",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a session token.
func ValidateToken(tokenString, secret string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// SessionMiddleware guards the console routes. All API responses are JSON, so
// failures surface as 401 payloads rather than redirects.
func SessionMiddleware(store *session.Store, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return utils.UnauthorizedError("Session error", err)
		}

		if sess.Get("authenticated") != true {
			return utils.UnauthorizedError("Not authenticated", nil)
		}

		token, _ := sess.Get("token").(string)
		if token == "" {
			return utils.UnauthorizedError("Missing session token", nil)
		}
		if err := ValidateToken(token, cfg.Auth.JWTSecret); err != nil {
			// Expired tokens require a fresh login even if the cookie survives.
			_ = sess.Destroy()
			return utils.UnauthorizedError("Session expired", err)
		}

		return c.Next()
	}
}
