package directory

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient   Role = "patient"
	RoleAdmin     Role = "admin"
	RolePhysician Role = "physician"
)

type Patient struct {
	ID           uuid.UUID
	Name         string
	NationalID   string
	Phone        *string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Physician struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	CreatedAt time.Time
	UpdatedAt time.Time
}
