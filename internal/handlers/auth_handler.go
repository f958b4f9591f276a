package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/devarena/backend/internal/config"
	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/middleware"
	"github.com/devarena/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrUsernameTaken):
			return errorJSON(c, fiber.StatusConflict, err.Error())
		default:
			return badRequest(c, err.Error())
		}
	}

	slog.Info("user registered", "username", resp.User.Username)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return errorJSON(c, fiber.StatusUnauthorized, err.Error())
		}
		return badRequest(c, err.Error())
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Refresh(&req)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authService.Logout(&req); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to log out")
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}
	return c.JSON(services.UserToResponse(user))
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.authService.UpdateProfile(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			return errorJSON(c, fiber.StatusConflict, err.Error())
		}
		return badRequest(c, err.Error())
	}
	return c.JSON(services.UserToResponse(user))
}

func (h *AuthHandler) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.cfg.GoogleClientID,
		ClientSecret: h.cfg.GoogleClientSecret,
		RedirectURL:  h.cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// GoogleRedirect starts the OAuth flow. The state nonce is echoed back via a
// short-lived cookie and checked in the callback.
func (h *AuthHandler) GoogleRedirect(c *fiber.Ctx) error {
	if h.cfg.GoogleClientID == "" {
		return errorJSON(c, fiber.StatusNotImplemented, "Google sign-in is not configured")
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to start sign-in")
	}
	state := hex.EncodeToString(buf)

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    h.signState(state),
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Redirect(h.oauthConfig().AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || c.Cookies("oauth_state") != h.signState(state) {
		return badRequest(c, "Invalid OAuth state")
	}
	c.ClearCookie("oauth_state")

	code := c.Query("code")
	if code == "" {
		return badRequest(c, "Missing authorization code")
	}

	conf := h.oauthConfig()
	token, err := conf.Exchange(c.Context(), code)
	if err != nil {
		slog.Error("google token exchange failed", "error", err)
		return errorJSON(c, fiber.StatusUnauthorized, "Google sign-in failed")
	}

	client := conf.Client(c.Context(), token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		slog.Error("google userinfo fetch failed", "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "Failed to fetch Google profile")
	}
	defer resp.Body.Close()

	var profile struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return errorJSON(c, fiber.StatusBadGateway, "Invalid Google profile response")
	}
	if profile.ID == "" || profile.Email == "" {
		return errorJSON(c, fiber.StatusUnauthorized, "Google profile is incomplete")
	}

	auth, err := h.authService.GoogleSignIn(profile.ID, profile.Email, profile.Name)
	if err != nil {
		slog.Error("google sign-in failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to sign in with Google")
	}

	return c.JSON(auth)
}

func (h *AuthHandler) signState(state string) string {
	mac := hmac.New(sha256.New, []byte(h.cfg.SessionSecret))
	mac.Write([]byte(state))
	return state + "." + hex.EncodeToString(mac.Sum(nil))
}
