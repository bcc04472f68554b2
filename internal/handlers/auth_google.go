package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/kormoplatform/kormo-backend/internal/middleware"
	"github.com/kormoplatform/kormo-backend/internal/models"
	"github.com/kormoplatform/kormo-backend/internal/utils"
)

type GoogleOAuthHandler struct {
	DB              *gorm.DB
	Log             *zap.Logger
	JWTSecret       string
	Expires         int
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	next := c.Query("next", "/")
	st := randomState(32)

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    st,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_next",
		Value:    next,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})

	authURL := h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOffline)
	return c.Redirect(authURL, http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing code/state")
	}

	stCookie := c.Cookies("oauth_state")
	next := c.Cookies("oauth_next")
	if next == "" {
		next = "/"
	}
	if stCookie == "" || stCookie != state {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state")
	}

	tok, err := h.oauthCfg().Exchange(c.Context(), code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to exchange code")
	}

	client := h.oauthCfg().Client(c.Context(), tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to fetch userinfo")
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to decode userinfo")
	}

	email := strings.ToLower(strings.TrimSpace(gu.Email))
	if email == "" || !gu.VerifiedEmail {
		return c.Status(fiber.StatusBadRequest).SendString("Google account has no verified email")
	}

	u, err := h.findOrCreateUser(&gu, email)
	if err != nil {
		h.Log.Error("google login: find or create user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Login failed")
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create token")
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})

	target := strings.TrimRight(h.FrontendBaseURL, "/") + "/" + strings.TrimLeft(next, "/")
	if _, err := url.Parse(target); err != nil {
		target = h.FrontendBaseURL
	}
	return c.Redirect(target, http.StatusTemporaryRedirect)
}

// findOrCreateUser links the Google identity to an existing account by
// email, or registers a fresh client account. Social accounts get a
// random unusable password.
func (h *GoogleOAuthHandler) findOrCreateUser(gu *googleUserInfo, email string) (*models.User, error) {
	var u models.User
	err := h.DB.Where("email = ?", email).First(&u).Error
	if err == nil {
		if u.SocialProvider == "" {
			h.DB.Model(&u).Updates(map[string]interface{}{
				"social_provider":    "google",
				"social_provider_id": gu.ID,
			})
		}
		return &u, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	pw, err := utils.HashPassword(randomState(24))
	if err != nil {
		return nil, err
	}

	u = models.User{
		FirstName:        strings.TrimSpace(gu.GivenName),
		LastName:         strings.TrimSpace(gu.FamilyName),
		Email:            email,
		Password:         pw,
		Role:             models.RoleClient,
		Avatar:           gu.Picture,
		IsActive:         true,
		SocialProvider:   "google",
		SocialProviderID: gu.ID,
	}
	u.ProfileCompletionScore = u.ProfileCompletion()

	if err := h.DB.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
