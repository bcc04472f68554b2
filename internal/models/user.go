package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName string    `gorm:"type:varchar(80);not null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(80)" json:"last_name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"type:varchar(30)" json:"phone"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	Avatar     string         `gorm:"type:text" json:"avatar,omitempty"`
	Bio        string         `gorm:"type:text" json:"bio,omitempty"`
	Skills     datatypes.JSON `json:"skills,omitempty"`
	Location   string         `gorm:"type:varchar(120)" json:"location,omitempty"`
	Timezone   string         `gorm:"type:varchar(60)" json:"timezone,omitempty"`
	HourlyRate float64        `json:"hourly_rate,omitempty"`
	Currency   string         `gorm:"type:varchar(3);default:'BDT'" json:"currency"`

	IsActive   bool `gorm:"default:true" json:"is_active"`
	IsVerified bool `gorm:"default:false" json:"is_verified"`

	SocialProvider   string `gorm:"type:varchar(30)" json:"-"`
	SocialProviderID string `gorm:"type:varchar(120)" json:"-"`

	LastSeenAt             *time.Time `json:"last_seen_at,omitempty"`
	EmailVerifiedAt        *time.Time `json:"email_verified_at,omitempty"`
	PhoneVerifiedAt        *time.Time `json:"phone_verified_at,omitempty"`
	ProfileCompletionScore int        `gorm:"default:0" json:"profile_completion_score"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsClient() bool     { return u.Role == RoleClient }
func (u *User) IsFreelancer() bool { return u.Role == RoleFreelancer }
func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }

// ProfileCompletion scores how much of the profile is filled in (0-100).
// Recomputed and stored whenever the profile is written, so listings can
// sort on it without recomputing per row.
func (u *User) ProfileCompletion() int {
	fields := []string{
		u.FirstName, u.LastName, u.Email, u.Phone,
		u.Bio, string(u.Skills), u.Location, u.Avatar,
	}

	completed := 0.0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" && f != "null" {
			completed++
		}
	}

	if u.EmailVerifiedAt != nil {
		completed += 0.5
	}
	if u.PhoneVerifiedAt != nil {
		completed += 0.5
	}

	score := int(completed/float64(len(fields))*100 + 0.5)
	if score > 100 {
		score = 100
	}
	return score
}
