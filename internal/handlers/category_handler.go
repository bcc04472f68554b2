package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kormoplatform/kormo-backend/internal/models"
	"github.com/kormoplatform/kormo-backend/internal/utils"
)

type CategoryHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewCategoryHandler(db *gorm.DB, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{DB: db, Log: log}
}

// List returns active top-level categories with their children, ordered
// by sort_order.
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	var categories []models.Category
	err := h.DB.
		Preload("Children", "is_active = ?", true).
		Where("parent_id IS NULL AND is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		h.Log.Error("list categories", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to fetch categories")
	}

	return c.JSON(fiber.Map{"success": true, "data": categories})
}

// Show resolves a category by slug, with its parent and children.
func (h *CategoryHandler) Show(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var cat models.Category
	err := h.DB.
		Preload("Parent").
		Preload("Children", "is_active = ?", true).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&cat).Error
	if err != nil {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": cat})
}

type CategoryReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	ParentID    *string `json:"parent_id"`
	SortOrder   int     `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// Create is admin-only (enforced by route middleware).
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req CategoryReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	name := strings.TrimSpace(req.Name)
	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "Name is required")
	}

	var parentID *uuid.UUID
	if req.ParentID != nil && *req.ParentID != "" {
		pid, err := uuid.Parse(*req.ParentID)
		if err != nil {
			errs.Add("parent_id", "Parent id is invalid")
		} else {
			var parent models.Category
			if err := h.DB.First(&parent, "id = ?", pid).Error; err != nil {
				errs.Add("parent_id", "Parent category does not exist")
			} else {
				parentID = &pid
			}
		}
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	cat := models.Category{
		Name:        name,
		Slug:        utils.Slugify(name),
		Description: strings.TrimSpace(req.Description),
		Icon:        strings.TrimSpace(req.Icon),
		ParentID:    parentID,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}

	if err := h.DB.Create(&cat).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return fail(c, fiber.StatusConflict, "A category with that slug already exists")
		}
		h.Log.Error("create category", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to create category")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": cat})
}

// Update is admin-only. Re-parenting is validated against the whole tree
// so the ancestor chain stays acyclic.
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	catID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid category ID")
	}

	var cat models.Category
	if err := h.DB.First(&cat, "id = ?", catID).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Category not found")
	}

	var req CategoryReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" && name != cat.Name {
		updates["name"] = name
		updates["slug"] = utils.Slugify(name)
	}
	if req.Description != "" {
		updates["description"] = strings.TrimSpace(req.Description)
	}
	if req.Icon != "" {
		updates["icon"] = strings.TrimSpace(req.Icon)
	}
	if req.SortOrder != 0 {
		updates["sort_order"] = req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if req.ParentID != nil {
		if *req.ParentID == "" {
			updates["parent_id"] = nil
		} else {
			pid, err := uuid.Parse(*req.ParentID)
			if err != nil {
				errs := FieldErrors{}
				errs.Add("parent_id", "Parent id is invalid")
				return validationFail(c, errs)
			}
			if pid == cat.ID {
				return fail(c, fiber.StatusUnprocessableEntity, "A category cannot be its own parent")
			}
			if ok, err := h.reparentKeepsTreeValid(cat.ID, pid); err != nil {
				h.Log.Error("update category: tree check", zap.Error(err))
				return fail(c, fiber.StatusInternalServerError, "Failed to update category")
			} else if !ok {
				return fail(c, fiber.StatusUnprocessableEntity, "Re-parenting would create a cycle")
			}
			updates["parent_id"] = pid
		}
	}

	if len(updates) == 0 {
		return c.JSON(fiber.Map{"success": true, "data": cat})
	}

	if err := h.DB.Model(&cat).Updates(updates).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return fail(c, fiber.StatusConflict, "A category with that slug already exists")
		}
		h.Log.Error("update category", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Failed to update category")
	}

	return c.JSON(fiber.Map{"success": true, "data": cat})
}

// reparentKeepsTreeValid simulates attaching catID under newParentID over
// a snapshot of the whole table and walks the chain iteratively.
func (h *CategoryHandler) reparentKeepsTreeValid(catID, newParentID uuid.UUID) (bool, error) {
	var all []models.Category
	if err := h.DB.Find(&all).Error; err != nil {
		return false, err
	}

	byID := make(map[uuid.UUID]*models.Category, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}
	if _, ok := byID[newParentID]; !ok {
		return false, nil
	}
	if cur, ok := byID[catID]; ok {
		pid := newParentID
		cur.ParentID = &pid
	}
	return models.CategoryPathValid(catID, byID), nil
}
