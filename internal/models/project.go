package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
	ProjectStatusDisputed  ProjectStatus = "disputed"
)

// Project is the live engagement created when a proposal is accepted.
type Project struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"job_id"`
	ProposalID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"proposal_id"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;index" json:"freelancer_id"`

	Title       string  `gorm:"type:varchar(255);not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Budget      float64 `gorm:"not null" json:"budget"`
	Currency    string  `gorm:"type:varchar(3);default:'BDT'" json:"currency"`

	Status             ProjectStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	StartDate          *time.Time    `json:"start_date,omitempty"`
	Deadline           *time.Time    `json:"deadline,omitempty"`
	CompletionDate     *time.Time    `json:"completion_date,omitempty"`
	ProgressPercentage int           `gorm:"default:0" json:"progress_percentage"`

	Milestones   datatypes.JSON `json:"milestones,omitempty"`
	Deliverables datatypes.JSON `json:"deliverables,omitempty"`

	ClientRating       *int   `json:"client_rating,omitempty"`
	FreelancerRating   *int   `json:"freelancer_rating,omitempty"`
	ClientFeedback     string `gorm:"type:text" json:"client_feedback,omitempty"`
	FreelancerFeedback string `gorm:"type:text" json:"freelancer_feedback,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Job        *Job      `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Proposal   *Proposal `gorm:"foreignKey:ProposalID" json:"proposal,omitempty"`
	Client     *User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User     `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (p *Project) HasParticipant(userID uuid.UUID) bool {
	return p.ClientID == userID || p.FreelancerID == userID
}

// ApplyProgress clamps pct to [0,100] and, when the clamped value hits
// 100 on an active project, completes it. Returns whether the project
// transitioned to completed.
func (p *Project) ApplyProgress(pct int, now time.Time) bool {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	p.ProgressPercentage = pct

	if pct == 100 && p.Status == ProjectStatusActive {
		p.MarkCompleted(now)
		return true
	}
	return false
}

// MarkCompleted is idempotent: completing an already completed project
// keeps the original completion date.
func (p *Project) MarkCompleted(now time.Time) {
	if p.Status == ProjectStatusCompleted {
		return
	}
	p.Status = ProjectStatusCompleted
	p.ProgressPercentage = 100
	p.CompletionDate = &now
}

func (p *Project) IsOverdue(now time.Time) bool {
	return p.Status == ProjectStatusActive && p.Deadline != nil && p.Deadline.Before(now)
}
