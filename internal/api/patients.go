package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/medcita/appointment-scheduling/internal/auth"
	"github.com/medcita/appointment-scheduling/internal/directory"
)

func registerPatientHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		patient, err := svc.RegisterPatient(r.Context(), directory.NewPatient{
			Name:       req.Name,
			NationalID: req.NationalID,
			Phone:      req.Phone,
			Email:      req.Email,
			Password:   req.Password,
		})
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, patientResponse(patient))
	}
}

func loginHandler(svc *directory.Service, tokens *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		patient, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, directory.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
				return
			}
			log.Printf("login failed: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "could not log in")
			return
		}

		token, err := tokens.Issue(patient)
		if err != nil {
			log.Printf("issue token: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "could not issue token")
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:   token,
			Patient: patientResponse(patient),
		})
	}
}

func getPatientHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		patient, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, patientResponse(patient))
	}
}

func listPatientsHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context())
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		out := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			out = append(out, patientResponse(&patients[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updatePatientHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req UpdatePatientRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		patient, err := svc.UpdatePatient(r.Context(), id, directory.PatientPatch{
			Name:     req.Name,
			Phone:    req.Phone,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, patientResponse(patient))
	}
}

func changeRoleHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req ChangeRoleRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		patient, err := svc.ChangeRole(r.Context(), id, req.Role)
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, patientResponse(patient))
	}
}

func deletePatientHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		found, err := svc.DeletePatient(r.Context(), id)
		if err != nil {
			handleDirectoryError(w, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "patient_not_found", "patient not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDirectoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directory.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, directory.ErrPhysicianNotFound):
		writeError(w, http.StatusNotFound, "physician_not_found", err.Error())
	case errors.Is(err, directory.ErrNationalIDTaken):
		writeError(w, http.StatusConflict, "national_id_taken", err.Error())
	case errors.Is(err, directory.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, directory.ErrPatientHasAppointments):
		writeError(w, http.StatusConflict, "patient_has_appointments", err.Error())
	case errors.Is(err, directory.ErrPhysicianHasAppointments):
		writeError(w, http.StatusConflict, "physician_has_appointments", err.Error())
	case errors.Is(err, directory.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_role", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
