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

type ProjectHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewProjectHandler(db *gorm.DB, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{DB: db, Log: log}
}

type ProjectOut struct {
	ID                 string     `json:"id"`
	JobID              string     `json:"job_id"`
	ProposalID         string     `json:"proposal_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Budget             float64    `json:"budget"`
	Currency           string     `json:"currency"`
	Status             string     `json:"status"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	CompletionDate     *time.Time `json:"completion_date,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`
	IsOverdue          bool       `json:"is_overdue"`
	ClientRating       *int       `json:"client_rating,omitempty"`
	FreelancerRating   *int       `json:"freelancer_rating,omitempty"`
	ClientFeedback     string     `json:"client_feedback,omitempty"`
	FreelancerFeedback string     `json:"freelancer_feedback,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`

	Client     *UserMini `json:"client,omitempty"`
	Freelancer *UserMini `json:"freelancer,omitempty"`
}

func toProjectOut(p *models.Project, now time.Time) ProjectOut {
	return ProjectOut{
		ID:                 p.ID.String(),
		JobID:              p.JobID.String(),
		ProposalID:         p.ProposalID.String(),
		Title:              p.Title,
		Description:        p.Description,
		Budget:             p.Budget,
		Currency:           p.Currency,
		Status:             string(p.Status),
		StartDate:          p.StartDate,
		Deadline:           p.Deadline,
		CompletionDate:     p.CompletionDate,
		ProgressPercentage: p.ProgressPercentage,
		IsOverdue:          p.IsOverdue(now),
		ClientRating:       p.ClientRating,
		FreelancerRating:   p.FreelancerRating,
		ClientFeedback:     p.ClientFeedback,
		FreelancerFeedback: p.FreelancerFeedback,
		CreatedAt:          p.CreatedAt,
		Client:             toUserMini(p.Client),
		Freelancer:         toUserMini(p.Freelancer),
	}
}

// List returns the caller's projects on either side of the engagement.
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	page, perPage, offset := parsePage(c, 20, 100)

	q := h.DB.Model(&models.Project{}).
		Preload("Client").
		Preload("Freelancer").
		Where("client_id = ? OR freelancer_id = ?", uid, uid)

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch projects")
	}

	var projects []models.Project
	if err := q.Order("created_at DESC").Limit(perPage).Offset(offset).Find(&projects).Error; err != nil {
		h.Log.Error("list projects", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch projects")
	}

	now := time.Now()
	out := make([]ProjectOut, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectOut(&projects[i], now))
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       out,
		"pagination": newPagination(page, perPage, total),
	})
}

// loadForParticipant resolves the project and caller. A nil project means
// the error response has already been written; callers check the pointer,
// not the error.
func (h *ProjectHandler) loadForParticipant(c *fiber.Ctx) (*models.Project, uuid.UUID, error) {
	uid, err := getUserUUID(c)
	if err != nil {
		return nil, uuid.Nil, fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	projID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, uuid.Nil, fail(c, fiber.StatusBadRequest, "Invalid project ID")
	}

	var p models.Project
	if err := h.DB.Preload("Client").Preload("Freelancer").First(&p, "id = ?", projID).Error; err != nil {
		return nil, uuid.Nil, fail(c, fiber.StatusNotFound, "Project not found")
	}
	if !p.HasParticipant(uid) {
		return nil, uuid.Nil, fail(c, fiber.StatusForbidden, "Access denied")
	}
	return &p, uid, nil
}

func (h *ProjectHandler) Show(c *fiber.Ctx) error {
	p, _, err := h.loadForParticipant(c)
	if p == nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": toProjectOut(p, time.Now())})
}

type ProgressReq struct {
	Progress *int `json:"progress_percentage"`
}

// UpdateProgress clamps the percentage to [0,100]; reaching 100 on an
// active project completes it in the same write.
func (h *ProjectHandler) UpdateProgress(c *fiber.Ctx) error {
	p, _, err := h.loadForParticipant(c)
	if p == nil {
		return err
	}

	var req ProgressReq
	if err := c.BodyParser(&req); err != nil || req.Progress == nil {
		errs := FieldErrors{}
		errs.Add("progress_percentage", "Progress percentage is required")
		return validationFail(c, errs)
	}
	if p.Status != models.ProjectStatusActive {
		return fail(c, fiber.StatusUnprocessableEntity, "Progress can only be updated on an active project")
	}

	now := time.Now()
	completed := p.ApplyProgress(*req.Progress, now)

	updates := map[string]interface{}{
		"progress_percentage": p.ProgressPercentage,
	}
	if completed {
		updates["status"] = p.Status
		updates["completion_date"] = p.CompletionDate
	}
	if err := h.DB.Model(p).Updates(updates).Error; err != nil {
		h.Log.Error("update project progress", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to update progress")
	}

	return c.JSON(fiber.Map{"success": true, "data": toProjectOut(p, now)})
}

// Complete marks the project completed. Idempotent; client only.
func (h *ProjectHandler) Complete(c *fiber.Ctx) error {
	p, uid, err := h.loadForParticipant(c)
	if p == nil {
		return err
	}
	if p.ClientID != uid {
		return fail(c, fiber.StatusForbidden, "Only the client can complete a project")
	}
	if p.Status == models.ProjectStatusCancelled || p.Status == models.ProjectStatusDisputed {
		return fail(c, fiber.StatusUnprocessableEntity, "Project is not active")
	}

	now := time.Now()
	p.MarkCompleted(now)
	if err := h.DB.Model(p).Updates(map[string]interface{}{
		"status":              p.Status,
		"progress_percentage": p.ProgressPercentage,
		"completion_date":     p.CompletionDate,
	}).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to complete project")
	}

	return c.JSON(fiber.Map{"success": true, "data": toProjectOut(p, now)})
}

// Cancel moves an active project to cancelled.
func (h *ProjectHandler) Cancel(c *fiber.Ctx) error {
	p, _, err := h.loadForParticipant(c)
	if p == nil {
		return err
	}
	if p.Status != models.ProjectStatusActive {
		return fail(c, fiber.StatusUnprocessableEntity, "Only an active project can be cancelled")
	}

	if err := h.DB.Model(p).Update("status", models.ProjectStatusCancelled).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to cancel project")
	}
	p.Status = models.ProjectStatusCancelled

	return c.JSON(fiber.Map{"success": true, "data": toProjectOut(p, time.Now())})
}

type RateReq struct {
	Rating   *int   `json:"rating"`
	Feedback string `json:"feedback"`
}

// Rate stores the caller's rating of the other party on a completed
// project. The client rates the freelancer and vice versa; each side can
// rate once.
func (h *ProjectHandler) Rate(c *fiber.Ctx) error {
	p, uid, err := h.loadForParticipant(c)
	if p == nil {
		return err
	}
	if p.Status != models.ProjectStatusCompleted {
		return fail(c, fiber.StatusUnprocessableEntity, "Only a completed project can be rated")
	}

	var req RateReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	if req.Rating == nil || *req.Rating < 1 || *req.Rating > 5 {
		errs := FieldErrors{}
		errs.Add("rating", "Rating must be between 1 and 5")
		return validationFail(c, errs)
	}

	feedback := strings.TrimSpace(req.Feedback)
	updates := map[string]interface{}{}
	if uid == p.ClientID {
		if p.ClientRating != nil {
			return fail(c, fiber.StatusConflict, "You have already rated this project")
		}
		updates["client_rating"] = *req.Rating
		updates["client_feedback"] = feedback
		p.ClientRating = req.Rating
		p.ClientFeedback = feedback
	} else {
		if p.FreelancerRating != nil {
			return fail(c, fiber.StatusConflict, "You have already rated this project")
		}
		updates["freelancer_rating"] = *req.Rating
		updates["freelancer_feedback"] = feedback
		p.FreelancerRating = req.Rating
		p.FreelancerFeedback = feedback
	}

	if err := h.DB.Model(p).Updates(updates).Error; err != nil {
		h.Log.Error("rate project", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to save rating")
	}

	return c.JSON(fiber.Map{"success": true, "data": toProjectOut(p, time.Now())})
}
