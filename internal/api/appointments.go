package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medcita/appointment-scheduling/internal/appointment"
)

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		patientID, _ := uuid.Parse(req.PatientID)
		physicianID, _ := uuid.Parse(req.PhysicianID)

		date, _ := time.Parse("2006-01-02", req.Date)
		tod, err := appointment.ParseTimeOfDay(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
			return
		}

		appt, err := svc.Book(r.Context(), patientID, physicianID, date, tod)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		detail, err := svc.Get(r.Context(), appt.ID)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(detail))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(detail))
	}
}

func updateAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		var patch appointment.Patch
		if req.PhysicianID != nil {
			physicianID, _ := uuid.Parse(*req.PhysicianID)
			patch.PhysicianID = &physicianID
		}
		if req.Date != nil {
			date, _ := time.Parse("2006-01-02", *req.Date)
			patch.Date = &date
		}
		if req.Time != nil {
			tod, err := appointment.ParseTimeOfDay(*req.Time)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
				return
			}
			patch.Time = &tod
		}

		appt, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		detail, err := svc.Get(r.Context(), appt.ID)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(detail))
	}
}

func changeStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req ChangeStatusRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		appt, err := svc.ChangeStatus(r.Context(), id, req.Status)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		detail, err := svc.Get(r.Context(), appt.ID)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(detail))
	}
}

func deleteAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		found, err := svc.Delete(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "appointment_not_found", "appointment not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listByPatientHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		list, err := svc.ListByPatient(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentListResponse(list))
	}
}

func listByPhysicianHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		list, err := svc.ListByPhysician(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentListResponse(list))
	}
}

// listAppointmentsHandler exposes the filtered listing. Every query
// parameter is optional; unknown ids narrow the result to nothing instead
// of erroring.
func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f appointment.Filter
		q := r.URL.Query()

		if raw := q.Get("patient_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			f.PatientID = &id
		}
		if raw := q.Get("physician_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_physician_id", "physician_id must be a valid UUID")
				return
			}
			f.PhysicianID = &id
		}
		if raw := q.Get("date_from"); raw != "" {
			d, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date_from", "date_from must be YYYY-MM-DD")
				return
			}
			f.DateFrom = &d
		}
		if raw := q.Get("date_to"); raw != "" {
			d, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date_to", "date_to must be YYYY-MM-DD")
				return
			}
			f.DateTo = &d
		}
		if raw := q.Get("status"); raw != "" {
			status, err := appointment.ParseStatus(raw)
			if err != nil {
				handleSchedulingError(w, err)
				return
			}
			f.Status = &status
		}

		list, err := svc.ListFiltered(r.Context(), f)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentListResponse(list))
	}
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrPhysicianNotFound):
		writeError(w, http.StatusNotFound, "physician_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrPastDate):
		writeError(w, http.StatusBadRequest, "past_date", err.Error())
	case errors.Is(err, appointment.ErrOutsideBusinessHours):
		writeError(w, http.StatusBadRequest, "outside_business_hours", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
