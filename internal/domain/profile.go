package domain

import "time"

// Profile defaults.
const (
	DefaultProfilePicture = "https://via.placeholder.com/150"
	DefaultLanguage       = "English"
	DefaultTheme          = "Light"
)

// Profile holds the owner's personal details and preferences.
type Profile struct {
	OwnerID        int64     `json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	DateOfBirth    *Date     `json:"date_of_birth"`
	AccountCreated Date      `json:"account_created"`
	Language       string    `json:"language"`
	Theme          string    `json:"theme"`
	UpdatedAt      time.Time `json:"-"`
}

// NewProfile returns the profile created alongside a new user.
func NewProfile(ownerID int64, name, email string, now time.Time) *Profile {
	return &Profile{
		OwnerID:        ownerID,
		ProfilePicture: DefaultProfilePicture,
		Name:           name,
		Email:          email,
		AccountCreated: NewDate(now),
		Language:       DefaultLanguage,
		Theme:          DefaultTheme,
	}
}

// UpdateProfileRequest is the body for PUT /v1/profile. Nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,url"`
	Name           *string `json:"name" validate:"omitempty,max=100"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Phone          *string `json:"phone" validate:"omitempty,max=20"`
	Address        *string `json:"address" validate:"omitempty,max=200"`
	DateOfBirth    *Date   `json:"date_of_birth"`
	Language       *string `json:"language" validate:"omitempty,max=50"`
	Theme          *string `json:"theme" validate:"omitempty,max=50"`
}

// Apply copies the set fields onto p.
func (r *UpdateProfileRequest) Apply(p *Profile) {
	if r.ProfilePicture != nil {
		p.ProfilePicture = *r.ProfilePicture
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Email != nil {
		p.Email = *r.Email
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.DateOfBirth != nil {
		dob := *r.DateOfBirth
		p.DateOfBirth = &dob
	}
	if r.Language != nil {
		p.Language = *r.Language
	}
	if r.Theme != nil {
		p.Theme = *r.Theme
	}
}
