package web

import (
	"net/http"

	"github.com/qartha/idfportal/internal/core"
)

type clusterResponse struct {
	Clusters []string `json:"clusters"`
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, clusterResponse{Clusters: s.service.Catalog().Clusters()})
}

type assetKindResponse struct {
	Name      string `json:"name"`
	ImageOnly bool   `json:"image_only"`
	Multi     bool   `json:"multi"`
}

func (s *Server) handleAssetKinds(w http.ResponseWriter, r *http.Request) {
	kinds := core.AssetKinds()
	out := make([]assetKindResponse, len(kinds))
	for i, k := range kinds {
		out[i] = assetKindResponse{Name: k.Name, ImageOnly: k.ImageOnly, Multi: k.Multi}
	}
	writeJSON(w, out)
}

func (s *Server) handleListIDFs(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		respondError(w, r, err)
		return
	}

	list, err := s.service.ListIDFs(r.Context(), p.cluster, p.project, core.ListOptions{
		Query:         r.URL.Query().Get("q"),
		Limit:         limit,
		Skip:          skip,
		IncludeHealth: queryBool(r, "include_health"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (s *Server) handleGetIDF(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	idf, err := s.service.GetIDF(r.Context(), p.cluster, p.project, p.code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, idf)
}

func (s *Server) handleCreateIDF(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	var in core.IDFUpsert
	if err := decodeJSON(w, r, maxJSONBody, &in); err != nil {
		respondError(w, r, err)
		return
	}
	idf, err := s.service.CreateIDF(r.Context(), p.cluster, p.project, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, idf)
}

func (s *Server) handleUpdateIDF(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	var in core.IDFUpsert
	if err := decodeJSON(w, r, maxJSONBody, &in); err != nil {
		respondError(w, r, err)
		return
	}
	idf, err := s.service.UpdateIDF(r.Context(), p.cluster, p.project, p.code, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, idf)
}

func (s *Server) handleDeleteIDF(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	if err := s.service.DeleteIDF(r.Context(), p.cluster, p.project, p.code); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	png, err := s.service.QRCode(r.Context(), p.cluster, p.project, p.code, requestBase(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}
