package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bryanwahyu/geo-authority/internal/domain/exports"
	"github.com/bryanwahyu/geo-authority/internal/middleware"
)

// GET /v1/projects/{projectID}/session/export?variant=comprehensive|authority
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	variant, ok := exports.ParseVariant(req.URL.Query().Get("variant"))
	if !ok {
		return invalid(fmt.Errorf("unknown variant %q", req.URL.Query().Get("variant")))
	}

	res, err := r.svc.Export.Export(req.Context(), id, variant)
	if err != nil {
		return err
	}
	middleware.CountExport(string(variant))

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	if res.Record != nil && res.Record.ArtifactURL != "" {
		w.Header().Set("X-Artifact-URL", res.Record.ArtifactURL)
	}
	_, err = w.Write(res.Data)
	return err
}

// GET /v1/projects/{projectID}/exports?page=&page_size=
func (r *Router) handleListExports(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.Export.List(req.Context(), id, middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
