package web

import (
	"net/http"

	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/table"
)

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	view, err := s.service.GetTable(r.Context(), p.cluster, p.project, p.code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	view, err := s.service.CreateTable(r.Context(), p.cluster, p.project, p.code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, view)
}

func (s *Server) handleReplaceTable(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	var next table.Table
	if err := decodeJSON(w, r, maxJSONBody, &next); err != nil {
		respondError(w, r, err)
		return
	}
	view, err := s.service.ReplaceTable(r.Context(), p.cluster, p.project, p.code, next)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	view, err := s.service.AddRow(r.Context(), p.cluster, p.project, p.code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleRemoveRow(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	index, err := intParam(r, "index")
	if err != nil {
		respondError(w, r, err)
		return
	}
	view, err := s.service.RemoveRow(r.Context(), p.cluster, p.project, p.code, index)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// cellUpdate is the body of PATCH .../table/cells.
type cellUpdate struct {
	Row   *int        `json:"row" validate:"required,min=0"`
	Key   string      `json:"key" validate:"required"`
	Value table.Value `json:"value"`
}

func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	var in cellUpdate
	if err := decodeJSON(w, r, 64<<10, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.validate.Struct(in); err != nil {
		respondError(w, r, core.AsInputError(err))
		return
	}
	view, err := s.service.UpdateCell(r.Context(), p.cluster, p.project, p.code, *in.Row, in.Key, in.Value)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}
