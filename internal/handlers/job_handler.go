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

type JobHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewJobHandler(db *gorm.DB, log *zap.Logger) *JobHandler {
	return &JobHandler{DB: db, Log: log}
}

type JobOut struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Requirements     string     `json:"requirements,omitempty"`
	Skills           []string   `json:"skills_required,omitempty"`
	BudgetType       string     `json:"budget_type"`
	BudgetMin        float64    `json:"budget_min"`
	BudgetMax        float64    `json:"budget_max"`
	Currency         string     `json:"currency"`
	DurationEstimate *int       `json:"duration_estimate,omitempty"`
	ExperienceLevel  string     `json:"experience_level"`
	LocationType     string     `json:"location_type"`
	Location         string     `json:"location,omitempty"`
	IsFeatured       bool       `json:"is_featured"`
	IsUrgent         bool       `json:"is_urgent"`
	Status           string     `json:"status"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`

	Client      *UserMini     `json:"client,omitempty"`
	Category    *CategoryMini `json:"category,omitempty"`
	Subcategory *CategoryMini `json:"subcategory,omitempty"`

	Proposals        []ProposalOut `json:"proposals,omitempty"`
	PendingProposals *int64        `json:"pending_proposals,omitempty"`
}

func toJobOut(j *models.Job) JobOut {
	return JobOut{
		ID:               j.ID.String(),
		Title:            j.Title,
		Description:      j.Description,
		Requirements:     j.Requirements,
		Skills:           decodeStringList(j.Skills),
		BudgetType:       string(j.BudgetType),
		BudgetMin:        j.BudgetMin,
		BudgetMax:        j.BudgetMax,
		Currency:         j.Currency,
		DurationEstimate: j.DurationEstimate,
		ExperienceLevel:  string(j.ExperienceLevel),
		LocationType:     string(j.LocationType),
		Location:         j.Location,
		IsFeatured:       j.IsFeatured,
		IsUrgent:         j.IsUrgent,
		Status:           string(j.Status),
		PublishedAt:      j.PublishedAt,
		Deadline:         j.Deadline,
		CreatedAt:        j.CreatedAt,
		Client:           toUserMini(j.Client),
		Category:         toCategoryMini(j.Category),
		Subcategory:      toCategoryMini(j.Subcategory),
	}
}

// List returns published jobs with filters, featured/urgent first.
func (h *JobHandler) List(c *fiber.Ctx) error {
	page, perPage, offset := parsePage(c, 20, 100)

	q := h.DB.Model(&models.Job{}).
		Preload("Client").
		Preload("Category").
		Where("status = ? AND published_at IS NOT NULL AND published_at <= ?",
			models.JobStatusPublished, time.Now())

	errs := FieldErrors{}

	if v := c.Query("category_id"); v != "" {
		cid, err := uuid.Parse(v)
		if err != nil {
			errs.Add("category_id", "Category id is invalid")
		} else {
			q = q.Where("category_id = ?", cid)
		}
	}
	if v := c.QueryFloat("budget_min", -1); v >= 0 {
		q = q.Where("budget_min >= ?", v)
	}
	if v := c.QueryFloat("budget_max", -1); v >= 0 {
		q = q.Where("budget_max <= ?", v)
	}
	if v := c.Query("budget_type"); v != "" {
		switch models.BudgetType(v) {
		case models.BudgetTypeFixed, models.BudgetTypeHourly:
			q = q.Where("budget_type = ?", v)
		default:
			errs.Add("budget_type", "Budget type must be fixed or hourly")
		}
	}
	if v := c.Query("experience_level"); v != "" {
		switch models.ExperienceLevel(v) {
		case models.ExperienceEntry, models.ExperienceIntermediate, models.ExperienceExpert:
			q = q.Where("experience_level = ?", v)
		default:
			errs.Add("experience_level", "Experience level must be entry, intermediate or expert")
		}
	}
	if v := c.Query("location_type"); v != "" {
		switch models.LocationType(v) {
		case models.LocationRemote, models.LocationOnsite, models.LocationHybrid:
			q = q.Where("location_type = ?", v)
		default:
			errs.Add("location_type", "Location type must be remote, onsite or hybrid")
		}
	}
	if raw := c.Query("skills"); raw != "" {
		for _, skill := range strings.Split(raw, ",") {
			skill = strings.TrimSpace(skill)
			if skill != "" {
				// jsonb containment, one clause per requested skill
				q = q.Where("skills_required::jsonb @> ?", string(encodeStringList([]string{skill})))
			}
		}
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	// featured and urgent jobs float to the top regardless of sort key
	q = q.Order("is_featured DESC").Order("is_urgent DESC")
	switch c.Query("sort_by") {
	case "budget_asc":
		q = q.Order("budget_min ASC")
	case "budget_desc":
		q = q.Order("budget_max DESC")
	case "deadline":
		q = q.Order("deadline ASC")
	default:
		q = q.Order("created_at DESC")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.Log.Error("list jobs: count", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	var jobs []models.Job
	if err := q.Limit(perPage).Offset(offset).Find(&jobs).Error; err != nil {
		h.Log.Error("list jobs", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	out := make([]JobOut, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobOut(&jobs[i]))
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       out,
		"pagination": newPagination(page, perPage, total),
	})
}

// Search matches q against title, description and skills of published jobs.
func (h *JobHandler) Search(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("q"))
	if len(term) < 2 {
		errs := FieldErrors{}
		errs.Add("q", "Search term must be at least 2 characters")
		return validationFail(c, errs)
	}

	page, perPage, offset := parsePage(c, 20, 100)
	like := "%" + term + "%"

	q := h.DB.Model(&models.Job{}).
		Preload("Client").
		Preload("Category").
		Where("status = ? AND published_at IS NOT NULL AND published_at <= ?",
			models.JobStatusPublished, time.Now()).
		Where("title ILIKE ? OR description ILIKE ? OR skills_required::text ILIKE ?", like, like, like)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Search failed")
	}

	var jobs []models.Job
	if err := q.Order("created_at DESC").Limit(perPage).Offset(offset).Find(&jobs).Error; err != nil {
		h.Log.Error("search jobs", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Search failed")
	}

	out := make([]JobOut, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobOut(&jobs[i]))
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"search_term": term,
		"data":        out,
		"pagination":  newPagination(page, perPage, total),
	})
}

// ByCategory lists published jobs under a category slug.
func (h *JobHandler) ByCategory(c *fiber.Ctx) error {
	var cat models.Category
	if err := h.DB.Where("slug = ?", c.Params("slug")).First(&cat).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}

	page, perPage, offset := parsePage(c, 20, 100)

	q := h.DB.Model(&models.Job{}).
		Preload("Client").
		Preload("Category").
		Where("category_id = ?", cat.ID).
		Where("status = ? AND published_at IS NOT NULL AND published_at <= ?",
			models.JobStatusPublished, time.Now())

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	var jobs []models.Job
	if err := q.Order("created_at DESC").Limit(perPage).Offset(offset).Find(&jobs).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	out := make([]JobOut, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobOut(&jobs[i]))
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"category":   cat,
		"data":       out,
		"pagination": newPagination(page, perPage, total),
	})
}

type JobReq struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Requirements     string   `json:"requirements"`
	Skills           []string `json:"skills_required"`
	BudgetType       string   `json:"budget_type"`
	BudgetMin        *float64 `json:"budget_min"`
	BudgetMax        *float64 `json:"budget_max"`
	Currency         string   `json:"currency"`
	DurationEstimate *int     `json:"duration_estimate"`
	ExperienceLevel  string   `json:"experience_level"`
	CategoryID       string   `json:"category_id"`
	SubcategoryID    *string  `json:"subcategory_id"`
	LocationType     string   `json:"location_type"`
	Location         string   `json:"location"`
	Deadline         *string  `json:"deadline"` // RFC 3339
	IsUrgent         bool     `json:"is_urgent"`
	PublishNow       bool     `json:"publish_now"`
}

// Create posts a new job. Client role is enforced by route middleware;
// the job starts as draft unless publish_now is set.
func (h *JobHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req JobReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	errs := FieldErrors{}
	title := strings.TrimSpace(req.Title)
	desc := strings.TrimSpace(req.Description)
	if title == "" {
		errs.Add("title", "Title is required")
	} else if len(title) > 255 {
		errs.Add("title", "Title must be at most 255 characters")
	}
	if len(desc) < 50 {
		errs.Add("description", "Description must be at least 50 characters")
	}
	if len(req.Skills) == 0 {
		errs.Add("skills_required", "At least one skill is required")
	}

	budgetType := models.BudgetTypeFixed
	switch req.BudgetType {
	case "", string(models.BudgetTypeFixed):
	case string(models.BudgetTypeHourly):
		budgetType = models.BudgetTypeHourly
	default:
		errs.Add("budget_type", "Budget type must be fixed or hourly")
	}

	if req.BudgetMin == nil || *req.BudgetMin < 0 {
		errs.Add("budget_min", "Budget minimum is required and must be non-negative")
	}
	if req.BudgetMax == nil || *req.BudgetMax < 0 {
		errs.Add("budget_max", "Budget maximum is required and must be non-negative")
	}
	if req.BudgetMin != nil && req.BudgetMax != nil && *req.BudgetMax < *req.BudgetMin {
		errs.Add("budget_max", "Budget maximum must be at least the minimum")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "BDT"
	} else if len(currency) != 3 {
		errs.Add("currency", "Currency must be a 3-letter code")
	}

	level := models.ExperienceIntermediate
	switch req.ExperienceLevel {
	case "", string(models.ExperienceIntermediate):
	case string(models.ExperienceEntry):
		level = models.ExperienceEntry
	case string(models.ExperienceExpert):
		level = models.ExperienceExpert
	default:
		errs.Add("experience_level", "Experience level must be entry, intermediate or expert")
	}

	locType := models.LocationRemote
	switch req.LocationType {
	case "", string(models.LocationRemote):
	case string(models.LocationOnsite):
		locType = models.LocationOnsite
	case string(models.LocationHybrid):
		locType = models.LocationHybrid
	default:
		errs.Add("location_type", "Location type must be remote, onsite or hybrid")
	}
	location := strings.TrimSpace(req.Location)
	if locType != models.LocationRemote && location == "" {
		errs.Add("location", "Location is required for onsite and hybrid jobs")
	}

	var categoryID uuid.UUID
	if req.CategoryID == "" {
		errs.Add("category_id", "Category is required")
	} else if cid, err := uuid.Parse(req.CategoryID); err != nil {
		errs.Add("category_id", "Category id is invalid")
	} else {
		var cat models.Category
		if err := h.DB.First(&cat, "id = ?", cid).Error; err != nil {
			errs.Add("category_id", "Category does not exist")
		} else {
			categoryID = cid
		}
	}

	var subcategoryID *uuid.UUID
	if req.SubcategoryID != nil && *req.SubcategoryID != "" {
		sid, err := uuid.Parse(*req.SubcategoryID)
		if err != nil {
			errs.Add("subcategory_id", "Subcategory id is invalid")
		} else {
			var cat models.Category
			if err := h.DB.First(&cat, "id = ?", sid).Error; err != nil {
				errs.Add("subcategory_id", "Subcategory does not exist")
			} else {
				subcategoryID = &sid
			}
		}
	}

	var deadline *time.Time
	if req.Deadline != nil && *req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			errs.Add("deadline", "Deadline must be RFC 3339")
		} else if !t.After(time.Now()) {
			errs.Add("deadline", "Deadline must be in the future")
		} else {
			deadline = &t
		}
	}

	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	job := models.Job{
		ClientID:         uid,
		Title:            title,
		Description:      desc,
		Requirements:     strings.TrimSpace(req.Requirements),
		Skills:           encodeStringList(req.Skills),
		BudgetType:       budgetType,
		BudgetMin:        *req.BudgetMin,
		BudgetMax:        *req.BudgetMax,
		Currency:         currency,
		DurationEstimate: req.DurationEstimate,
		ExperienceLevel:  level,
		CategoryID:       categoryID,
		SubcategoryID:    subcategoryID,
		LocationType:     locType,
		Location:         location,
		IsUrgent:         req.IsUrgent,
		Deadline:         deadline,
		Status:           models.JobStatusDraft,
	}
	if req.PublishNow {
		now := time.Now()
		job.Status = models.JobStatusPublished
		job.PublishedAt = &now
	}

	if err := h.DB.Create(&job).Error; err != nil {
		h.Log.Error("create job", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to create job")
	}

	h.DB.Preload("Client").Preload("Category").First(&job, "id = ?", job.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toJobOut(&job),
	})
}

// Show returns a job. Drafts and other unpublished states are only
// visible to the owner; the owner also sees pending proposals inline.
// Viewing records a JobView unless the viewer owns the job.
func (h *JobHandler) Show(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid job ID")
	}

	var job models.Job
	if err := h.DB.
		Preload("Client").
		Preload("Category").
		Preload("Subcategory").
		First(&job, "id = ?", jobID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Job not found")
	}

	viewerID, _ := getUserUUID(c) // uuid.Nil for anonymous

	if job.Status != models.JobStatusPublished && job.ClientID != viewerID {
		return fail(c, fiber.StatusNotFound, "Job not found")
	}

	// anonymous views count too; the owner's own views never do
	if viewerID != job.ClientID {
		view := models.JobView{
			JobID:     job.ID,
			IPAddress: c.IP(),
			UserAgent: c.Get("User-Agent"),
		}
		if viewerID != uuid.Nil {
			view.UserID = &viewerID
		}
		if err := h.DB.Create(&view).Error; err != nil {
			h.Log.Warn("record job view", zap.Error(err))
		}
	}

	out := toJobOut(&job)

	if viewerID == job.ClientID {
		var proposals []models.Proposal
		if err := h.DB.
			Preload("Freelancer").
			Where("job_id = ? AND status = ?", job.ID, models.ProposalStatusPending).
			Order("created_at DESC").
			Find(&proposals).Error; err == nil {
			for i := range proposals {
				out.Proposals = append(out.Proposals, toProposalOut(&proposals[i]))
			}
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// Update edits a job. Only the owner may edit, and never once the job is
// in progress or completed. Publishing a draft stamps published_at.
func (h *JobHandler) Update(c *fiber.Ctx) error {
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
	if job.IsLocked() {
		return fail(c, fiber.StatusUnprocessableEntity, "Cannot update a job that is in progress or completed")
	}

	var req struct {
		JobReq
		Status *string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	errs := FieldErrors{}
	updates := map[string]interface{}{}

	if req.Title != "" {
		title := strings.TrimSpace(req.Title)
		if len(title) > 255 {
			errs.Add("title", "Title must be at most 255 characters")
		} else {
			updates["title"] = title
		}
	}
	if req.Description != "" {
		desc := strings.TrimSpace(req.Description)
		if len(desc) < 50 {
			errs.Add("description", "Description must be at least 50 characters")
		} else {
			updates["description"] = desc
		}
	}
	if req.Requirements != "" {
		updates["requirements"] = strings.TrimSpace(req.Requirements)
	}
	if len(req.Skills) > 0 {
		updates["skills_required"] = encodeStringList(req.Skills)
	}

	newMin, newMax := job.BudgetMin, job.BudgetMax
	if req.BudgetMin != nil {
		if *req.BudgetMin < 0 {
			errs.Add("budget_min", "Budget minimum must be non-negative")
		} else {
			newMin = *req.BudgetMin
			updates["budget_min"] = newMin
		}
	}
	if req.BudgetMax != nil {
		if *req.BudgetMax < 0 {
			errs.Add("budget_max", "Budget maximum must be non-negative")
		} else {
			newMax = *req.BudgetMax
			updates["budget_max"] = newMax
		}
	}
	if newMax < newMin {
		errs.Add("budget_max", "Budget maximum must be at least the minimum")
	}

	if req.Deadline != nil && *req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			errs.Add("deadline", "Deadline must be RFC 3339")
		} else if !t.After(time.Now()) {
			errs.Add("deadline", "Deadline must be in the future")
		} else {
			updates["deadline"] = t
		}
	}

	if req.Status != nil {
		switch models.JobStatus(*req.Status) {
		case models.JobStatusDraft:
			updates["status"] = models.JobStatusDraft
		case models.JobStatusPublished:
			updates["status"] = models.JobStatusPublished
			if job.PublishedAt == nil {
				updates["published_at"] = time.Now()
			}
		case models.JobStatusCancelled:
			updates["status"] = models.JobStatusCancelled
		default:
			errs.Add("status", "Status must be draft, published or cancelled")
		}
	}

	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&job).Updates(updates).Error; err != nil {
			h.Log.Error("update job", zap.Error(err))
			return fail(c, fiber.StatusInternalServerError, "Failed to update job")
		}
	}

	h.DB.Preload("Client").Preload("Category").First(&job, "id = ?", job.ID)
	return c.JSON(fiber.Map{"success": true, "data": toJobOut(&job)})
}

// Delete soft-deletes a job. In-progress jobs cannot be deleted.
func (h *JobHandler) Delete(c *fiber.Ctx) error {
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
	if job.Status == models.JobStatusInProgress {
		return fail(c, fiber.StatusUnprocessableEntity, "Cannot delete a job that is in progress")
	}

	if err := h.DB.Delete(&job).Error; err != nil {
		h.Log.Error("delete job", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to delete job")
	}

	return c.JSON(fiber.Map{"success": true, "message": "Job deleted"})
}

// MyJobs lists the caller's own jobs in every status.
func (h *JobHandler) MyJobs(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	page, perPage, offset := parsePage(c, 20, 100)

	q := h.DB.Model(&models.Job{}).
		Preload("Category").
		Where("client_id = ?", uid)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	var jobs []models.Job
	if err := q.Order("created_at DESC").Limit(perPage).Offset(offset).Find(&jobs).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch jobs")
	}

	out := make([]JobOut, 0, len(jobs))
	for i := range jobs {
		jo := toJobOut(&jobs[i])
		var pending int64
		h.DB.Model(&models.Proposal{}).
			Where("job_id = ? AND status = ?", jobs[i].ID, models.ProposalStatusPending).
			Count(&pending)
		jo.PendingProposals = &pending
		out = append(out, jo)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       out,
		"pagination": newPagination(page, perPage, total),
	})
}

// jobHasAcceptedProposal resolves whether any proposal on the job is
// accepted, using the given handle (may be a transaction).
func jobHasAcceptedProposal(tx *gorm.DB, jobID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&models.Proposal{}).
		Where("job_id = ? AND status = ?", jobID, models.ProposalStatusAccepted).
		Count(&n).Error
	return n > 0, err
}
