package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem holds a snapshot of the course at the time it was added
type CartItem struct {
	ID              string  `json:"_id" gorm:"primaryKey;size:36"`
	CourseID        string  `json:"courseID" gorm:"index;not null;size:36"`
	Email           string  `json:"email" gorm:"index;not null;size:255"`
	ClassName       string  `json:"className" gorm:"size:200"`
	ClassImage      string  `json:"classImage,omitempty" gorm:"size:500"`
	InstructorName  string  `json:"instructorName,omitempty" gorm:"size:100"`
	InstructorEmail string  `json:"instructorEmail,omitempty" gorm:"size:255"`
	Price           float64 `json:"price"`
	AvailableSeats  int     `json:"availableSeats"`

	CreatedAt time.Time `json:"createdAt"`
}

func (CartItem) TableName() string {
	return "carts"
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
