package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// idfPath holds the path parameters shared by IDF routes.
type idfPath struct {
	cluster string
	project string
	code    string
}

func pathParams(r *http.Request) idfPath {
	return idfPath{
		cluster: chi.URLParam(r, "cluster"),
		project: chi.URLParam(r, "project"),
		code:    chi.URLParam(r, "code"),
	}
}

// intParam parses a path parameter as a non-negative integer.
func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return v, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, defaultVal int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return v, nil
}

// queryBool treats "1", "true" and "yes" as true.
func queryBool(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}
