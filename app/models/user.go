package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	ROLE_SUPERADMIN = "superadmin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// User is the actor directory entry. Credentials live with the external
// identity provider; this record only carries what the report workflow needs.
type User struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	FirstName     string    `gorm:"type:varchar(100)" json:"firstName" bson:"first_name" validate:"max=100"`
	MiddleInitial string    `gorm:"type:varchar(10)" json:"middleInitial" bson:"middle_initial" validate:"max=10"`
	LastName      string    `gorm:"type:varchar(100)" json:"lastName" bson:"last_name" validate:"max=100"`
	Email         string    `gorm:"type:varchar(200);index" json:"email" bson:"email" validate:"omitempty,email,max=200"`
	ContactNumber string    `gorm:"type:varchar(50)" json:"contactNumber" bson:"contact_number" validate:"max=50"`
	Role          string    `gorm:"type:varchar(20);default:'user'" json:"role" bson:"role" validate:"oneof=user admin superadmin"`
	Status        string    `gorm:"type:varchar(20);default:'active'" json:"status" bson:"status" validate:"oneof=active inactive disabled"`
	Location      string    `gorm:"type:varchar(100);index" json:"location" bson:"location" validate:"max=100"`
	Points        int       `gorm:"not null;default:0" json:"points" bson:"points"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt" bson:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// FullName renders "First M. Last" skipping empty parts.
func (u *User) FullName() string {
	middle := u.MiddleInitial
	if middle != "" && len(middle) == 1 {
		middle += "."
	}
	return BuildDisplayName(u.FirstName, middle, u.LastName, "")
}
