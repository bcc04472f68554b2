package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusRejected  ProposalStatus = "rejected"
	ProposalStatusWithdrawn ProposalStatus = "withdrawn"
)

// Proposal is a freelancer's bid on a job. One row per (job, freelancer);
// at most one proposal per job may ever be accepted, enforced by
// AcceptedJobID below on top of the in-transaction checks.
type Proposal struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_job_freelancer" json:"job_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_job_freelancer" json:"freelancer_id"`

	CoverLetter    string  `gorm:"type:text;not null" json:"cover_letter"`
	ProposedAmount float64 `gorm:"not null" json:"proposed_amount"`
	Currency       string  `gorm:"type:varchar(3);default:'BDT'" json:"currency"`
	DeliveryTime   int     `gorm:"not null" json:"delivery_time"` // days

	Milestones  datatypes.JSON `json:"milestones,omitempty"`
	Attachments datatypes.JSON `json:"attachments,omitempty"`

	Status      ProposalStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`

	// Set to the job id only on the accepted proposal, null otherwise.
	// The unique index makes a second concurrent accept on the same job
	// fail at the store even if both transactions raced past the status
	// checks.
	AcceptedJobID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Job        *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

func (p *Proposal) CanBeWithdrawn() bool {
	return p.Status == ProposalStatusPending
}

func (p *Proposal) CanBeRejected() bool {
	return p.Status == ProposalStatusPending
}

// CanBeAccepted assumes the caller has already resolved whether the job
// still accepts proposals.
func (p *Proposal) CanBeAccepted(jobAccepting bool) bool {
	return p.Status == ProposalStatusPending && jobAccepting
}
