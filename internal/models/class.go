package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassStatus string

const (
	ClassPending  ClassStatus = "pending"
	ClassApproved ClassStatus = "approved"
	ClassDenied   ClassStatus = "denied"
)

// Class is a course listing. AvailableSeats and EnrolledStudents are only
// changed by the payment success transition, one seat per paid order.
type Class struct {
	ID               string      `json:"_id" gorm:"primaryKey;size:36"`
	InstructorName   string      `json:"instructorName" gorm:"size:100"`
	InstructorEmail  string      `json:"instructorEmail" gorm:"index;not null;size:255"`
	ClassName        string      `json:"className" gorm:"not null;size:200"`
	ClassImage       string      `json:"classImage,omitempty" gorm:"size:500"`
	Details          string      `json:"details,omitempty" gorm:"type:text"`
	AvailableSeats   int         `json:"availableSeats" gorm:"not null;default:0"`
	EnrolledStudents int         `json:"enrolledStudents" gorm:"not null;default:0"`
	Price            float64     `json:"price" gorm:"not null;default:0"`
	StartDate        string      `json:"startDate,omitempty" gorm:"size:50"`
	Status           ClassStatus `json:"status" gorm:"size:20;index;default:pending"`
	Feedback         string      `json:"feedback,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Class) TableName() string {
	return "classes"
}

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = ClassPending
	}
	return nil
}

// Instructor is a read-only listing entry
type Instructor struct {
	ID           string `json:"_id" gorm:"primaryKey;size:36"`
	Name         string `json:"name" gorm:"size:100"`
	Email        string `json:"email" gorm:"index;size:255"`
	PhotoURL     string `json:"photoURL,omitempty" gorm:"size:500"`
	ClassesTaken int    `json:"classesTaken" gorm:"default:0"`
	// ClassNames is a comma separated list as stored by the admin tooling
	ClassNames string `json:"classNames,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
}

func (Instructor) TableName() string {
	return "instructors"
}

func (i *Instructor) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
