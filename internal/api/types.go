package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medcita/appointment-scheduling/internal/appointment"
	"github.com/medcita/appointment-scheduling/internal/directory"
)

type CreateAppointmentRequest struct {
	PatientID   string `json:"patient_id" validate:"required,uuid"`
	PhysicianID string `json:"physician_id" validate:"required,uuid"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required"`
}

type UpdateAppointmentRequest struct {
	PhysicianID *string `json:"physician_id" validate:"omitempty,uuid"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        *string `json:"time" validate:"omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID `json:"id"`
	PatientID          uuid.UUID `json:"patient_id"`
	PatientName        string    `json:"patient_name,omitempty"`
	PhysicianID        uuid.UUID `json:"physician_id"`
	PhysicianName      string    `json:"physician_name,omitempty"`
	PhysicianSpecialty string    `json:"physician_specialty,omitempty"`
	Date               string    `json:"date"`
	Time               string    `json:"time"`
	Status             string    `json:"status"`
}

func appointmentResponse(d *appointment.AppointmentDetail) AppointmentResponse {
	return AppointmentResponse{
		ID:                 d.ID,
		PatientID:          d.PatientID,
		PatientName:        d.PatientName,
		PhysicianID:        d.PhysicianID,
		PhysicianName:      d.PhysicianName,
		PhysicianSpecialty: d.PhysicianSpecialty,
		Date:               d.Date.Format("2006-01-02"),
		Time:               d.Time.String(),
		Status:             string(d.Status),
	}
}

func appointmentListResponse(list []appointment.AppointmentDetail) []AppointmentResponse {
	result := make([]AppointmentResponse, 0, len(list))
	for i := range list {
		result = append(result, appointmentResponse(&list[i]))
	}
	return result
}

type RegisterPatientRequest struct {
	Name       string  `json:"name" validate:"required,max=100"`
	NationalID string  `json:"national_id" validate:"required,national_id"`
	Phone      *string `json:"phone" validate:"omitempty,len=10,numeric"`
	Email      string  `json:"email" validate:"required,email,max=100"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
}

type UpdatePatientRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,len=10,numeric"`
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type PatientResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	NationalID string    `json:"national_id"`
	Phone      *string   `json:"phone,omitempty"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

func patientResponse(p *directory.Patient) PatientResponse {
	return PatientResponse{
		ID:         p.ID,
		Name:       p.Name,
		NationalID: p.NationalID,
		Phone:      p.Phone,
		Email:      p.Email,
		Role:       string(p.Role),
		CreatedAt:  p.CreatedAt,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Patient PatientResponse `json:"patient"`
}

type CreatePhysicianRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Specialty string `json:"specialty" validate:"required,max=50"`
}

type UpdatePhysicianRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=100"`
	Specialty *string `json:"specialty" validate:"omitempty,max=50"`
}

type PhysicianResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
}

func physicianResponse(p *directory.Physician) PhysicianResponse {
	return PhysicianResponse{
		ID:        p.ID,
		Name:      p.Name,
		Specialty: p.Specialty,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
