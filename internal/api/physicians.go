package api

import (
	"net/http"

	"github.com/medcita/appointment-scheduling/internal/directory"
)

func createPhysicianHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePhysicianRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		physician, err := svc.CreatePhysician(r.Context(), req.Name, req.Specialty)
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, physicianResponse(physician))
	}
}

func getPhysicianHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		physician, err := svc.GetPhysician(r.Context(), id)
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, physicianResponse(physician))
	}
}

func listPhysiciansHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		physicians, err := svc.ListPhysicians(r.Context())
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		out := make([]PhysicianResponse, 0, len(physicians))
		for i := range physicians {
			out = append(out, physicianResponse(&physicians[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updatePhysicianHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req UpdatePhysicianRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		physician, err := svc.UpdatePhysician(r.Context(), id, directory.PhysicianPatch{
			Name:      req.Name,
			Specialty: req.Specialty,
		})
		if err != nil {
			handleDirectoryError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, physicianResponse(physician))
	}
}

func deletePhysicianHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		found, err := svc.DeletePhysician(r.Context(), id)
		if err != nil {
			handleDirectoryError(w, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "physician_not_found", "physician not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
