package httpserver

import (
	"net/http"

	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/middleware"
)

// GET /v1/categories
func (r *Router) handleCategories(w http.ResponseWriter, req *http.Request) error {
	cats, err := r.svc.Navigation.Categories(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, cats)
}

// GET /v1/companies
func (r *Router) handleListCompanies(w http.ResponseWriter, req *http.Request) error {
	list, err := r.svc.Navigation.Companies(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/companies
// Body: {"name": "...", "description": "...", "website": "..."}
func (r *Router) handleCreateCompany(w http.ResponseWriter, req *http.Request) error {
	var body domain.Company
	if err := decodeJSON(req, &body, false); err != nil {
		return err
	}
	body.Name = middleware.SanitizeString(body.Name)
	body.Description = middleware.SanitizeString(body.Description)

	c, err := r.svc.Navigation.CreateCompany(req.Context(), body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, c)
}

// GET /v1/companies/{companyID} (company plus its projects)
func (r *Router) handleGetCompany(w http.ResponseWriter, req *http.Request) error {
	id, err := companyID(req)
	if err != nil {
		return err
	}
	view, err := r.svc.Navigation.CompanyWithProjects(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

// DELETE /v1/companies/{companyID}
func (r *Router) handleDeleteCompany(w http.ResponseWriter, req *http.Request) error {
	id, err := companyID(req)
	if err != nil {
		return err
	}
	if err := r.svc.Navigation.DeleteCompany(req.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/companies/{companyID}/projects
func (r *Router) handleListProjects(w http.ResponseWriter, req *http.Request) error {
	id, err := companyID(req)
	if err != nil {
		return err
	}
	list, err := r.svc.Navigation.Projects(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/companies/{companyID}/projects
// Body: {"name", "description", "domain", "nation", "state"}
func (r *Router) handleCreateProject(w http.ResponseWriter, req *http.Request) error {
	id, err := companyID(req)
	if err != nil {
		return err
	}
	var body domain.Project
	if err := decodeJSON(req, &body, false); err != nil {
		return err
	}
	body.Name = middleware.SanitizeString(body.Name)
	if body.Domain != "" {
		if err := middleware.ValidateDomain(domain.NormalizeDomain(body.Domain)); err != nil {
			return invalid(err)
		}
	}

	p, err := r.svc.Navigation.CreateProject(req.Context(), id, body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, p)
}

// GET /v1/projects/{projectID}
func (r *Router) handleGetProject(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	p, err := r.svc.Navigation.Project(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

// DELETE /v1/projects/{projectID}
func (r *Router) handleDeleteProject(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	if err := r.svc.Navigation.DeleteProject(req.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
