package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Ayesha Rahman", (&User{FirstName: "Ayesha", LastName: "Rahman"}).FullName())
	assert.Equal(t, "Ayesha", (&User{FirstName: "Ayesha"}).FullName())
}

func TestUserRoleHelpers(t *testing.T) {
	assert.True(t, (&User{Role: RoleClient}).IsClient())
	assert.True(t, (&User{Role: RoleFreelancer}).IsFreelancer())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleClient}).IsAdmin())
}

func TestProfileCompletion(t *testing.T) {
	t.Run("minimal account", func(t *testing.T) {
		u := User{FirstName: "Ayesha", Email: "ayesha@example.com"}
		// 2 of 8 fields
		assert.Equal(t, 25, u.ProfileCompletion())
	})

	t.Run("full profile with verifications caps at 100", func(t *testing.T) {
		now := time.Now()
		u := User{
			FirstName:       "Ayesha",
			LastName:        "Rahman",
			Email:           "ayesha@example.com",
			Phone:           "+8801712345678",
			Bio:             "Backend developer",
			Skills:          datatypes.JSON([]byte(`["go","postgres"]`)),
			Location:        "Dhaka",
			Avatar:          "https://cdn.example.com/a.png",
			EmailVerifiedAt: &now,
			PhoneVerifiedAt: &now,
		}
		assert.Equal(t, 100, u.ProfileCompletion())
	})

	t.Run("verifications add half a field each", func(t *testing.T) {
		now := time.Now()
		u := User{FirstName: "Ayesha", Email: "ayesha@example.com", EmailVerifiedAt: &now}
		// 2.5 of 8 fields, rounded
		assert.Equal(t, 31, u.ProfileCompletion())
	})

	t.Run("json null skills do not count", func(t *testing.T) {
		u := User{FirstName: "Ayesha", Email: "ayesha@example.com", Skills: datatypes.JSON([]byte(`null`))}
		assert.Equal(t, 25, u.ProfileCompletion())
	})
}
