package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID               uuid.UUID                      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email            string                         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash     string                         `json:"-" gorm:"not null"`
	FullName         string                         `json:"fullName" gorm:"not null"`
	Bio              string                         `json:"bio"`
	ProfilePic       string                         `json:"profilePic"`
	NativeLanguage   string                         `json:"nativeLanguage"`
	LearningLanguage string                         `json:"learningLanguage"`
	Location         string                         `json:"location"`
	IsOnboarded      bool                           `json:"isOnboarded" gorm:"not null;default:false;index"`
	Friends          datatypes.JSONSlice[uuid.UUID] `json:"friends" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt        time.Time                      `json:"createdAt"`
	UpdatedAt        time.Time                      `json:"updatedAt"`
}

// HasFriend reports whether id is in the user's friend list.
func (u *User) HasFriend(id uuid.UUID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// OnboardingProfile is the set of profile fields written by onboarding.
type OnboardingProfile struct {
	FullName         string
	Bio              string
	NativeLanguage   string
	LearningLanguage string
	Location         string
	ProfilePic       string
}

// Apply merges the profile into u and marks it onboarded. An empty ProfilePic keeps the current one.
func (p OnboardingProfile) Apply(u *User) {
	u.FullName = p.FullName
	u.Bio = p.Bio
	u.NativeLanguage = p.NativeLanguage
	u.LearningLanguage = p.LearningLanguage
	u.Location = p.Location
	if p.ProfilePic != "" {
		u.ProfilePic = p.ProfilePic
	}
	u.IsOnboarded = true
}
