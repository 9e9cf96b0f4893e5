package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qartha/idfportal/internal/core"
)

// multipartMemory is how much of a multipart form is buffered in memory
// before parts spill to temporary files.
const multipartMemory = 8 << 20

// multipartFiles parses a multipart body bounded by the configured upload
// size and opens every part under the given field names. The returned
// cleanup closes the files and removes temporary parts.
func (s *Server) multipartFiles(w http.ResponseWriter, r *http.Request, fields ...string) ([]core.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, func() {}, err
		}
		return nil, func() {}, errors.Join(errBadRequest, err)
	}

	var (
		uploads []core.Upload
		opened  []io.Closer
	)
	cleanup := func() {
		for _, c := range opened {
			_ = c.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}

	for _, field := range fields {
		for _, fh := range r.MultipartForm.File[field] {
			f, err := fh.Open()
			if err != nil {
				cleanup()
				return nil, func() {}, fmt.Errorf("open %s: %w", fh.Filename, err)
			}
			opened = append(opened, f)
			uploads = append(uploads, uploadOf(fh, f))
		}
	}
	return uploads, cleanup, nil
}

func uploadOf(fh *multipart.FileHeader, f multipart.File) core.Upload {
	return core.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}
}

func (s *Server) handleUploadAssets(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	kind := chi.URLParam(r, "kind")

	files, cleanup, err := s.multipartFiles(w, r, "files", "file")
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cleanup()

	idf, err := s.service.UploadAssets(r.Context(), p.cluster, p.project, p.code, kind, files)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, idf)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	p := pathParams(r)
	index, err := intParam(r, "index")
	if err != nil {
		respondError(w, r, err)
		return
	}
	idf, err := s.service.DeleteAsset(r.Context(), p.cluster, p.project, p.code, chi.URLParam(r, "kind"), index)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, idf)
}
