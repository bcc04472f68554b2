package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobStatusDraft      JobStatus = "draft"
	JobStatusPublished  JobStatus = "published"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

type BudgetType string

const (
	BudgetTypeFixed  BudgetType = "fixed"
	BudgetTypeHourly BudgetType = "hourly"
)

type ExperienceLevel string

const (
	ExperienceEntry        ExperienceLevel = "entry"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

type LocationType string

const (
	LocationRemote LocationType = "remote"
	LocationOnsite LocationType = "onsite"
	LocationHybrid LocationType = "hybrid"
)

type Job struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`

	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Description  string         `gorm:"type:text;not null" json:"description"`
	Requirements string         `gorm:"type:text" json:"requirements,omitempty"`
	Skills       datatypes.JSON `gorm:"column:skills_required" json:"skills_required,omitempty"`

	BudgetType       BudgetType `gorm:"type:varchar(10);default:'fixed'" json:"budget_type"`
	BudgetMin        float64    `gorm:"not null" json:"budget_min"`
	BudgetMax        float64    `gorm:"not null" json:"budget_max"`
	Currency         string     `gorm:"type:varchar(3);default:'BDT'" json:"currency"`
	DurationEstimate *int       `json:"duration_estimate,omitempty"` // days

	ExperienceLevel ExperienceLevel `gorm:"type:varchar(20);default:'intermediate'" json:"experience_level"`
	CategoryID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	SubcategoryID   *uuid.UUID      `gorm:"type:uuid" json:"subcategory_id,omitempty"`

	LocationType LocationType `gorm:"type:varchar(10);default:'remote'" json:"location_type"`
	Location     string       `gorm:"type:varchar(255)" json:"location,omitempty"`

	IsFeatured bool `gorm:"default:false" json:"is_featured"`
	IsUrgent   bool `gorm:"default:false" json:"is_urgent"`

	Status      JobStatus  `gorm:"type:varchar(20);default:'draft';index" json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`

	Attachments datatypes.JSON `json:"attachments,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Client      *User      `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Category    *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Subcategory *Category  `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
	Proposals   []Proposal `gorm:"foreignKey:JobID" json:"proposals,omitempty"`
}

// IsAcceptingProposals reports whether new proposals may be submitted.
// hasAccepted is whether any proposal on the job is already accepted;
// the caller resolves that against the store.
func (j *Job) IsAcceptingProposals(now time.Time, hasAccepted bool) bool {
	if j.Status != JobStatusPublished || hasAccepted {
		return false
	}
	return j.Deadline == nil || j.Deadline.After(now)
}

// IsLocked is true once the job has entered a state where edits and
// deletion are no longer allowed.
func (j *Job) IsLocked() bool {
	return j.Status == JobStatusInProgress || j.Status == JobStatusCompleted
}

// JobView records one view of a published job. The owner's own views are
// never recorded.
type JobView struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"job_id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	IPAddress string     `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent string     `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
