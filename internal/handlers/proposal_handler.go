package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kormoplatform/kormo-backend/internal/models"
)

type ProposalHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewProposalHandler(db *gorm.DB, log *zap.Logger) *ProposalHandler {
	return &ProposalHandler{DB: db, Log: log}
}

// errAcceptConflict marks the loser of a concurrent accept race.
var errAcceptConflict = errors.New("proposal can no longer be accepted")

type ProposalOut struct {
	ID             string     `json:"id"`
	JobID          string     `json:"job_id"`
	FreelancerID   string     `json:"freelancer_id"`
	CoverLetter    string     `json:"cover_letter"`
	ProposedAmount float64    `json:"proposed_amount"`
	Currency       string     `json:"currency"`
	DeliveryTime   int        `json:"delivery_time"`
	Status         string     `json:"status"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	Freelancer *UserMini `json:"freelancer,omitempty"`
	Job        *JobOut   `json:"job,omitempty"`
}

func toProposalOut(p *models.Proposal) ProposalOut {
	out := ProposalOut{
		ID:             p.ID.String(),
		JobID:          p.JobID.String(),
		FreelancerID:   p.FreelancerID.String(),
		CoverLetter:    p.CoverLetter,
		ProposedAmount: p.ProposedAmount,
		Currency:       p.Currency,
		DeliveryTime:   p.DeliveryTime,
		Status:         string(p.Status),
		SubmittedAt:    p.SubmittedAt,
		CreatedAt:      p.CreatedAt,
		Freelancer:     toUserMini(p.Freelancer),
	}
	if p.Job != nil {
		jo := toJobOut(p.Job)
		out.Job = &jo
	}
	return out
}

type SubmitProposalReq struct {
	JobID          string   `json:"job_id"`
	CoverLetter    string   `json:"cover_letter"`
	ProposedAmount *float64 `json:"proposed_amount"`
	Currency       string   `json:"currency"`
	DeliveryTime   *int     `json:"delivery_time"` // days
}

// Submit creates a pending proposal. Rejected when the freelancer already
// proposed on this job or the job is no longer accepting proposals.
func (h *ProposalHandler) Submit(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req SubmitProposalReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	errs := FieldErrors{}
	var jobID uuid.UUID
	if req.JobID == "" {
		errs.Add("job_id", "Job id is required")
	} else if jid, err := uuid.Parse(req.JobID); err != nil {
		errs.Add("job_id", "Job id is invalid")
	} else {
		jobID = jid
	}
	if strings.TrimSpace(req.CoverLetter) == "" {
		errs.Add("cover_letter", "Cover letter is required")
	}
	if req.ProposedAmount == nil || *req.ProposedAmount <= 0 {
		errs.Add("proposed_amount", "Proposed amount must be positive")
	}
	if req.DeliveryTime == nil || *req.DeliveryTime < 1 {
		errs.Add("delivery_time", "Delivery time must be at least 1 day")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Job not found")
	}
	if job.ClientID == uid {
		return fail(c, fiber.StatusForbidden, "You cannot propose on your own job")
	}

	hasAccepted, err := jobHasAcceptedProposal(h.DB, job.ID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to submit proposal")
	}
	if !job.IsAcceptingProposals(time.Now(), hasAccepted) {
		return fail(c, fiber.StatusUnprocessableEntity, "Job is not accepting proposals")
	}

	var existing models.Proposal
	if err := h.DB.Where("job_id = ? AND freelancer_id = ?", job.ID, uid).First(&existing).Error; err == nil {
		return fail(c, fiber.StatusConflict, "You have already submitted a proposal for this job")
	} else if err != gorm.ErrRecordNotFound {
		return fail(c, fiber.StatusInternalServerError, "Failed to submit proposal")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = job.Currency
	}

	now := time.Now()
	p := models.Proposal{
		JobID:          job.ID,
		FreelancerID:   uid,
		CoverLetter:    strings.TrimSpace(req.CoverLetter),
		ProposedAmount: *req.ProposedAmount,
		Currency:       currency,
		DeliveryTime:   *req.DeliveryTime,
		Status:         models.ProposalStatusPending,
		SubmittedAt:    &now,
	}
	if err := h.DB.Create(&p).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return fail(c, fiber.StatusConflict, "You have already submitted a proposal for this job")
		}
		h.Log.Error("submit proposal", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to submit proposal")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toProposalOut(&p),
	})
}

// Show is visible to the proposal's freelancer and the job's owner.
func (h *ProposalHandler) Show(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	propID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid proposal ID")
	}

	var p models.Proposal
	if err := h.DB.
		Preload("Freelancer").
		Preload("Job").
		Preload("Job.Client").
		First(&p, "id = ?", propID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Proposal not found")
	}

	if p.FreelancerID != uid && (p.Job == nil || p.Job.ClientID != uid) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	return c.JSON(fiber.Map{"success": true, "data": toProposalOut(&p)})
}

type UpdateProposalReq struct {
	CoverLetter    string   `json:"cover_letter"`
	ProposedAmount *float64 `json:"proposed_amount"`
	DeliveryTime   *int     `json:"delivery_time"`
}

// Update edits a proposal while it is still pending.
func (h *ProposalHandler) Update(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	propID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid proposal ID")
	}

	var p models.Proposal
	if err := h.DB.First(&p, "id = ?", propID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Proposal not found")
	}
	if p.FreelancerID != uid {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}
	if p.Status != models.ProposalStatusPending {
		return fail(c, fiber.StatusUnprocessableEntity, "Only pending proposals can be updated")
	}

	var req UpdateProposalReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	errs := FieldErrors{}
	updates := map[string]interface{}{}
	if req.CoverLetter != "" {
		updates["cover_letter"] = strings.TrimSpace(req.CoverLetter)
	}
	if req.ProposedAmount != nil {
		if *req.ProposedAmount <= 0 {
			errs.Add("proposed_amount", "Proposed amount must be positive")
		} else {
			updates["proposed_amount"] = *req.ProposedAmount
		}
	}
	if req.DeliveryTime != nil {
		if *req.DeliveryTime < 1 {
			errs.Add("delivery_time", "Delivery time must be at least 1 day")
		} else {
			updates["delivery_time"] = *req.DeliveryTime
		}
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&p).Updates(updates).Error; err != nil {
			h.Log.Error("update proposal", zap.Error(err))
			return fail(c, fiber.StatusInternalServerError, "Failed to update proposal")
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": toProposalOut(&p)})
}

// Withdraw is the freelancer's terminal exit from a pending proposal.
func (h *ProposalHandler) Withdraw(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	propID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid proposal ID")
	}

	var p models.Proposal
	if err := h.DB.First(&p, "id = ?", propID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Proposal not found")
	}
	if p.FreelancerID != uid {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}
	if !p.CanBeWithdrawn() {
		return fail(c, fiber.StatusUnprocessableEntity, "Only pending proposals can be withdrawn")
	}

	if err := h.DB.Model(&p).Update("status", models.ProposalStatusWithdrawn).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to withdraw proposal")
	}

	return c.JSON(fiber.Map{"success": true, "message": "Proposal withdrawn"})
}

// Reject is the job owner's terminal rejection of a pending proposal.
func (h *ProposalHandler) Reject(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	propID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid proposal ID")
	}

	var p models.Proposal
	if err := h.DB.Preload("Job").First(&p, "id = ?", propID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Proposal not found")
	}
	if p.Job == nil || p.Job.ClientID != uid {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}
	if !p.CanBeRejected() {
		return fail(c, fiber.StatusUnprocessableEntity, "Only pending proposals can be rejected")
	}

	if err := h.DB.Model(&p).Update("status", models.ProposalStatusRejected).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to reject proposal")
	}

	return c.JSON(fiber.Map{"success": true, "message": "Proposal rejected"})
}

// Accept accepts a proposal on behalf of the job owner. Inside one
// transaction, with the job row locked: the proposal becomes accepted,
// every other pending proposal on the job becomes rejected, a project is
// created from the proposal terms, and the job moves to in_progress. A
// concurrent accept on a sibling proposal loses either on the re-check
// under the lock or on the accepted-proposal unique index.
func (h *ProposalHandler) Accept(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	propID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid proposal ID")
	}

	var p models.Proposal
	if err := h.DB.Preload("Job").First(&p, "id = ?", propID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Proposal not found")
	}
	if p.Job == nil || p.Job.ClientID != uid {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	var project models.Project
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&job, "id = ?", p.JobID).Error; err != nil {
			return err
		}

		// reload under the lock: a racing accept may have already moved
		// the proposal or the job
		var prop models.Proposal
		if err := tx.First(&prop, "id = ?", p.ID).Error; err != nil {
			return err
		}

		hasAccepted, err := jobHasAcceptedProposal(tx, job.ID)
		if err != nil {
			return err
		}
		if !prop.CanBeAccepted(job.IsAcceptingProposals(time.Now(), hasAccepted)) {
			return errAcceptConflict
		}

		jobID := job.ID
		if err := tx.Model(&prop).Updates(map[string]interface{}{
			"status":          models.ProposalStatusAccepted,
			"accepted_job_id": jobID,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Proposal{}).
			Where("job_id = ? AND id != ? AND status = ?", job.ID, prop.ID, models.ProposalStatusPending).
			Update("status", models.ProposalStatusRejected).Error; err != nil {
			return err
		}

		now := time.Now()
		deadline := now.AddDate(0, 0, prop.DeliveryTime)
		project = models.Project{
			JobID:        job.ID,
			ProposalID:   prop.ID,
			ClientID:     job.ClientID,
			FreelancerID: prop.FreelancerID,
			Title:        job.Title,
			Description:  job.Description,
			Budget:       prop.ProposedAmount,
			Currency:     prop.Currency,
			Status:       models.ProjectStatusActive,
			StartDate:    &now,
			Deadline:     &deadline,
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		return tx.Model(&job).Update("status", models.JobStatusInProgress).Error
	})

	if txErr != nil {
		if errors.Is(txErr, errAcceptConflict) ||
			strings.Contains(txErr.Error(), "duplicate") ||
			strings.Contains(txErr.Error(), "unique") {
			return fail(c, fiber.StatusUnprocessableEntity, "Proposal can no longer be accepted")
		}
		h.Log.Error("accept proposal", zap.Error(txErr))
		return fail(c, fiber.StatusInternalServerError, "Failed to accept proposal")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Proposal accepted",
		"data":    toProjectOut(&project, time.Now()),
	})
}

// MyProposals lists the caller's proposals with their jobs.
func (h *ProposalHandler) MyProposals(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	page, perPage, offset := parsePage(c, 20, 100)

	q := h.DB.Model(&models.Proposal{}).
		Preload("Job").
		Preload("Job.Client").
		Where("freelancer_id = ?", uid)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch proposals")
	}

	var proposals []models.Proposal
	if err := q.Order("created_at DESC").Limit(perPage).Offset(offset).Find(&proposals).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch proposals")
	}

	out := make([]ProposalOut, 0, len(proposals))
	for i := range proposals {
		out = append(out, toProposalOut(&proposals[i]))
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       out,
		"pagination": newPagination(page, perPage, total),
	})
}

// JobProposals lists all proposals on a job, owner only.
func (h *ProposalHandler) JobProposals(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid job ID")
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Job not found")
	}
	if job.ClientID != uid {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	var proposals []models.Proposal
	if err := h.DB.
		Preload("Freelancer").
		Where("job_id = ?", job.ID).
		Order("created_at DESC").
		Find(&proposals).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch proposals")
	}

	out := make([]ProposalOut, 0, len(proposals))
	for i := range proposals {
		out = append(out, toProposalOut(&proposals[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}
