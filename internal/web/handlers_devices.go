package web

import (
	"fmt"
	"net/http"

	"github.com/qartha/idfportal/internal/core"
)

func (s *Server) handleDeviceTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="devices_template.csv"`)
	_, _ = w.Write(core.DeviceTemplate())
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	devices, err := s.service.ListDevices(r.Context(), p.cluster, p.project, p.code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, devices)
}

func (s *Server) handleCreateDevices(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	var in []core.NewDevice
	if err := decodeJSON(w, r, maxJSONBody, &in); err != nil {
		respondError(w, r, err)
		return
	}
	devices, err := s.service.CreateDevices(r.Context(), p.cluster, p.project, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, devices)
}

func (s *Server) handleUploadDevicesCSV(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, r, fmt.Errorf("%w: code query parameter is required", errBadRequest))
		return
	}

	files, cleanup, err := s.multipartFiles(w, r, "file")
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cleanup()
	if len(files) != 1 {
		respondError(w, r, fmt.Errorf("%w: exactly one file is required", errBadRequest))
		return
	}

	result, err := s.service.ImportDevicesCSV(r.Context(), p.cluster, p.project, code, files[0])
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}
