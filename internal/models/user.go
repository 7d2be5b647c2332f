package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleNone       UserRole = ""
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// Valid reports whether r is one of the assignable roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User is looked up by email. Email is not unique at the storage level; the
// sign-in insert is guarded by a pre-check instead.
type User struct {
	ID       string   `json:"_id" gorm:"primaryKey;size:36"`
	Name     string   `json:"name" gorm:"size:100"`
	Email    string   `json:"email" gorm:"index;not null;size:255"`
	PhotoURL string   `json:"photoURL,omitempty" gorm:"size:500"`
	Role     UserRole `json:"role,omitempty" gorm:"size:20;index"`

	// Profile holds the rest of the sign-up document as-is
	Profile datatypes.JSONMap `json:"profile,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
