package validator

import (
	"encoding/json"

	"github.com/summer-camp-school/camp-service/internal/models"
)

// TokenRequest is the sign-in payload exchanged for an identity token
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=100"`
}

// CreateUserRequest is the first-sign-in document. Unknown top-level fields
// are kept in Profile next to anything sent under "profile".
type CreateUserRequest struct {
	Name     string                 `json:"name" validate:"omitempty,max=100"`
	Email    string                 `json:"email" validate:"required,email"`
	PhotoURL string                 `json:"photoURL" validate:"omitempty,max=500"`
	Profile  map[string]interface{} `json:"profile"`
}

func (r *CreateUserRequest) UnmarshalJSON(data []byte) error {
	type known CreateUserRequest
	var req known
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range []string{"name", "email", "photoURL", "profile"} {
		delete(raw, key)
	}
	if len(raw) > 0 {
		if req.Profile == nil {
			req.Profile = make(map[string]interface{}, len(raw))
		}
		for k, v := range raw {
			// an explicit profile entry wins over a top-level duplicate
			if _, ok := req.Profile[k]; !ok {
				req.Profile[k] = v
			}
		}
	}

	*r = CreateUserRequest(req)
	return nil
}

type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,user_role"`
}

type CreateClassRequest struct {
	InstructorName  string  `json:"instructorName" validate:"omitempty,max=100"`
	InstructorEmail string  `json:"instructorEmail" validate:"required,email"`
	ClassName       string  `json:"className" validate:"required,max=200"`
	ClassImage      string  `json:"classImage" validate:"omitempty,max=500"`
	Details         string  `json:"details"`
	AvailableSeats  int     `json:"availableSeats" validate:"min=0"`
	Price           float64 `json:"price" validate:"min=0"`
	StartDate       string  `json:"startDate" validate:"omitempty,max=50"`
}

// UpdateClassRequest replaces the instructor-editable fields as a whole
type UpdateClassRequest struct {
	InstructorEmail string  `json:"instructorEmail" validate:"required,email"`
	ClassName       string  `json:"className" validate:"required,max=200"`
	Details         string  `json:"details"`
	AvailableSeats  int     `json:"availableSeats" validate:"min=0"`
	Price           float64 `json:"price" validate:"min=0"`
	StartDate       string  `json:"startDate" validate:"omitempty,max=50"`
}

type StatusRequest struct {
	Status models.ClassStatus `json:"status" validate:"required,class_status"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"max=2000"`
}

type AddCartRequest struct {
	CourseID        string  `json:"courseID" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	ClassName       string  `json:"className" validate:"omitempty,max=200"`
	ClassImage      string  `json:"classImage" validate:"omitempty,max=500"`
	InstructorName  string  `json:"instructorName" validate:"omitempty,max=100"`
	InstructorEmail string  `json:"instructorEmail" validate:"omitempty,email"`
	Price           float64 `json:"price" validate:"min=0"`
	AvailableSeats  int     `json:"availableSeats" validate:"min=0"`
}

// InitiateOrderRequest carries the buyer details forwarded to the gateway
type InitiateOrderRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	Address  string `json:"address" validate:"omitempty,max=300"`
	PostCode string `json:"postCode" validate:"omitempty,max=20"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}
