package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kormoplatform/kormo-backend/internal/models"
)

type UserHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewUserHandler(db *gorm.DB, log *zap.Logger) *UserHandler {
	return &UserHandler{DB: db, Log: log}
}

type ProfileOut struct {
	ID                     string     `json:"id"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	Email                  string     `json:"email"`
	Phone                  string     `json:"phone,omitempty"`
	Role                   string     `json:"role"`
	Avatar                 string     `json:"avatar,omitempty"`
	Bio                    string     `json:"bio,omitempty"`
	Skills                 []string   `json:"skills,omitempty"`
	Location               string     `json:"location,omitempty"`
	Timezone               string     `json:"timezone,omitempty"`
	HourlyRate             float64    `json:"hourly_rate,omitempty"`
	Currency               string     `json:"currency"`
	IsVerified             bool       `json:"is_verified"`
	LastSeenAt             *time.Time `json:"last_seen_at,omitempty"`
	ProfileCompletionScore int        `json:"profile_completion_score"`
	CreatedAt              time.Time  `json:"created_at"`
}

func toProfileOut(u *models.User) ProfileOut {
	return ProfileOut{
		ID:                     u.ID.String(),
		FirstName:              u.FirstName,
		LastName:               u.LastName,
		Email:                  u.Email,
		Phone:                  u.Phone,
		Role:                   string(u.Role),
		Avatar:                 u.Avatar,
		Bio:                    u.Bio,
		Skills:                 decodeStringList(u.Skills),
		Location:               u.Location,
		Timezone:               u.Timezone,
		HourlyRate:             u.HourlyRate,
		Currency:               u.Currency,
		IsVerified:             u.IsVerified,
		LastSeenAt:             u.LastSeenAt,
		ProfileCompletionScore: u.ProfileCompletionScore,
		CreatedAt:              u.CreatedAt,
	}
}

// GetProfile returns the caller's own profile.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", uid).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": toProfileOut(&user)})
}

// ShowUser returns another user's public profile. Email and phone stay
// private.
func (h *UserHandler) ShowUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}

	out := toProfileOut(&user)
	out.Email = ""
	out.Phone = ""
	return c.JSON(fiber.Map{"success": true, "data": out})
}

type UpdateProfileReq struct {
	FirstName  *string   `json:"first_name"`
	LastName   *string   `json:"last_name"`
	Phone      *string   `json:"phone"`
	Avatar     *string   `json:"avatar"`
	Bio        *string   `json:"bio"`
	Skills     *[]string `json:"skills"`
	Location   *string   `json:"location"`
	Timezone   *string   `json:"timezone"`
	HourlyRate *float64  `json:"hourly_rate"`
	Currency   *string   `json:"currency"`
}

// UpdateProfile applies a partial update to the caller's profile and
// recomputes the completion score in the same write.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", uid).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	errs := FieldErrors{}
	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		if name == "" {
			errs.Add("first_name", "First name cannot be empty")
		} else if len(name) > 80 {
			errs.Add("first_name", "First name must be at most 80 characters")
		} else {
			user.FirstName = name
		}
	}
	if req.LastName != nil {
		if len(*req.LastName) > 80 {
			errs.Add("last_name", "Last name must be at most 80 characters")
		} else {
			user.LastName = strings.TrimSpace(*req.LastName)
		}
	}
	if req.Phone != nil {
		if len(*req.Phone) > 30 {
			errs.Add("phone", "Phone must be at most 30 characters")
		} else {
			phone := strings.TrimSpace(*req.Phone)
			if phone != user.Phone {
				user.Phone = phone
				user.PhoneVerifiedAt = nil
			}
		}
	}
	if req.Avatar != nil {
		user.Avatar = strings.TrimSpace(*req.Avatar)
	}
	if req.Bio != nil {
		if len(*req.Bio) > 5000 {
			errs.Add("bio", "Bio must be at most 5000 characters")
		} else {
			user.Bio = strings.TrimSpace(*req.Bio)
		}
	}
	if req.Skills != nil {
		if len(*req.Skills) > 30 {
			errs.Add("skills", "At most 30 skills are allowed")
		} else {
			user.Skills = encodeStringList(*req.Skills)
		}
	}
	if req.Location != nil {
		if len(*req.Location) > 120 {
			errs.Add("location", "Location must be at most 120 characters")
		} else {
			user.Location = strings.TrimSpace(*req.Location)
		}
	}
	if req.Timezone != nil {
		if len(*req.Timezone) > 60 {
			errs.Add("timezone", "Timezone must be at most 60 characters")
		} else {
			user.Timezone = strings.TrimSpace(*req.Timezone)
		}
	}
	if req.HourlyRate != nil {
		if *req.HourlyRate < 0 {
			errs.Add("hourly_rate", "Hourly rate cannot be negative")
		} else {
			user.HourlyRate = *req.HourlyRate
		}
	}
	if req.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(cur) != 3 {
			errs.Add("currency", "Currency must be a 3-letter code")
		} else {
			user.Currency = cur
		}
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	user.ProfileCompletionScore = user.ProfileCompletion()

	if err := h.DB.Save(&user).Error; err != nil {
		h.Log.Error("update profile", zap.Error(err), zap.String("user", uid.String()))
		return fail(c, fiber.StatusInternalServerError, "Failed to update profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated",
		"data":    toProfileOut(&user),
	})
}

// Dashboard returns role-aware activity counts for the caller.
func (h *UserHandler) Dashboard(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", uid).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "User not found")
	}

	stats := fiber.Map{
		"profile_completion": user.ProfileCompletionScore,
	}

	var unread int64
	h.DB.Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", uid).
		Count(&unread)
	stats["unread_messages"] = unread

	switch {
	case user.IsClient():
		var openJobs, pendingProposals, activeProjects, completedProjects int64
		h.DB.Model(&models.Job{}).
			Where("client_id = ? AND status = ?", uid, models.JobStatusPublished).
			Count(&openJobs)
		h.DB.Model(&models.Proposal{}).
			Joins("JOIN jobs ON jobs.id = proposals.job_id").
			Where("jobs.client_id = ? AND proposals.status = ?", uid, models.ProposalStatusPending).
			Count(&pendingProposals)
		h.DB.Model(&models.Project{}).
			Where("client_id = ? AND status = ?", uid, models.ProjectStatusActive).
			Count(&activeProjects)
		h.DB.Model(&models.Project{}).
			Where("client_id = ? AND status = ?", uid, models.ProjectStatusCompleted).
			Count(&completedProjects)
		stats["open_jobs"] = openJobs
		stats["pending_proposals"] = pendingProposals
		stats["active_projects"] = activeProjects
		stats["completed_projects"] = completedProjects

	case user.IsFreelancer():
		var pending, accepted, activeProjects, completedProjects int64
		h.DB.Model(&models.Proposal{}).
			Where("freelancer_id = ? AND status = ?", uid, models.ProposalStatusPending).
			Count(&pending)
		h.DB.Model(&models.Proposal{}).
			Where("freelancer_id = ? AND status = ?", uid, models.ProposalStatusAccepted).
			Count(&accepted)
		h.DB.Model(&models.Project{}).
			Where("freelancer_id = ? AND status = ?", uid, models.ProjectStatusActive).
			Count(&activeProjects)
		h.DB.Model(&models.Project{}).
			Where("freelancer_id = ? AND status = ?", uid, models.ProjectStatusCompleted).
			Count(&completedProjects)
		stats["pending_proposals"] = pending
		stats["accepted_proposals"] = accepted
		stats["active_projects"] = activeProjects
		stats["completed_projects"] = completedProjects

	case user.IsAdmin():
		var users, jobs, projects int64
		h.DB.Model(&models.User{}).Count(&users)
		h.DB.Model(&models.Job{}).Count(&jobs)
		h.DB.Model(&models.Project{}).Count(&projects)
		stats["total_users"] = users
		stats["total_jobs"] = jobs
		stats["total_projects"] = projects
	}

	return c.JSON(fiber.Map{"success": true, "data": stats})
}
