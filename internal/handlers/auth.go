package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kormoplatform/kormo-backend/internal/middleware"
	"github.com/kormoplatform/kormo-backend/internal/models"
	"github.com/kormoplatform/kormo-backend/internal/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	Log       *zap.Logger
	JWTSecret string
	Expires   int
}

type RegisterReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Role      string `json:"role"` // client / freelancer; admin is never self-served
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	password := strings.TrimSpace(req.Password)
	role := strings.ToLower(strings.TrimSpace(req.Role))

	errs := FieldErrors{}
	if firstName == "" {
		errs.Add("first_name", "First name is required")
	}
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Email format is invalid")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
	}
	if phone != "" && len(phone) < 8 {
		errs.Add("phone", "Phone number is invalid")
	}
	switch role {
	case string(models.RoleClient), string(models.RoleFreelancer):
	case "":
		role = string(models.RoleClient)
	default:
		errs.Add("role", "Role must be client or freelancer")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		errs := FieldErrors{}
		errs.Add("email", "Email is already registered")
		return validationFail(c, errs)
	} else if err != gorm.ErrRecordNotFound {
		h.Log.Error("register: email lookup", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to process password")
	}

	u := models.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
		Password:  pw,
		Role:      models.Role(role),
		IsActive:  true,
	}
	u.ProfileCompletionScore = u.ProfileCompletion()

	if err := h.DB.Create(&u).Error; err != nil {
		h.Log.Error("register: create user", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "Registration failed")
	}

	if err := h.issueCookie(c, &u); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":    u.ID,
			"name":  u.FullName(),
			"email": u.Email,
			"role":  u.Role,
		},
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if !u.IsActive {
		return fail(c, fiber.StatusForbidden, "Account is deactivated")
	}
	if !utils.CheckPassword(u.Password, req.Password) {
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	now := time.Now()
	h.DB.Model(&u).Update("last_seen_at", now)

	if err := h.issueCookie(c, &u); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to create token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":    u.ID,
			"name":  u.FullName(),
			"email": u.Email,
			"role":  u.Role,
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   -1,
	})
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var u models.User
	if err := h.DB.First(&u, "id = ?", uid).Error; err != nil {
		return fail(c, fiber.StatusUnauthorized, "User not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":                       u.ID,
			"first_name":               u.FirstName,
			"last_name":                u.LastName,
			"name":                     u.FullName(),
			"email":                    u.Email,
			"role":                     u.Role,
			"avatar":                   u.Avatar,
			"profile_completion_score": u.ProfileCompletionScore,
		},
	})
}

func (h *AuthHandler) issueCookie(c *fiber.Ctx, u *models.User) error {
	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
	return nil
}
