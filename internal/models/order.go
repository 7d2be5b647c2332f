package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
)

// Order tracks one checkout attempt, correlated with the gateway by TranID.
// A pending order either becomes paid or is deleted; both are terminal.
type Order struct {
	ID           string      `json:"_id" gorm:"primaryKey;size:36"`
	TranID       string      `json:"tranId" gorm:"uniqueIndex;not null;size:64"`
	CourseID     string      `json:"courseID" gorm:"index;not null;size:36"`
	ClassName    string      `json:"className,omitempty" gorm:"size:200"`
	StudentEmail string      `json:"studentEmail" gorm:"index;not null;size:255"`
	StudentName  string      `json:"studentName" gorm:"size:100"`
	Price        float64     `json:"price"`
	Currency     string      `json:"currency" gorm:"size:8"`
	PaidStatus   bool        `json:"paidStatus" gorm:"not null;default:false;index"`
	Status       OrderStatus `json:"status" gorm:"size:20;not null;default:pending"`
	PaidAt       *time.Time  `json:"paidAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.TranID == "" {
		o.TranID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = OrderPending
	}
	return nil
}

// AllModels lists every persisted model for schema migration
func AllModels() []interface{} {
	return []interface{}{&User{}, &Class{}, &Instructor{}, &CartItem{}, &Order{}}
}
