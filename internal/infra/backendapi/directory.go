package backendapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
)

func (c *HTTPClient) ListCompanies(ctx context.Context) ([]evaluation.Company, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/companies", nil, &raw, "Failed to fetch companies"); err != nil {
		return nil, err
	}
	dtos, err := decodeList[companyDTO](raw, "companies")
	if err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	out := make([]evaluation.Company, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *HTTPClient) GetCompany(ctx context.Context, id evaluation.CompanyID) (*evaluation.Company, error) {
	var d companyDTO
	if err := c.doJSON(ctx, http.MethodGet, "/companies/"+url.PathEscape(string(id)), nil, &d, "Failed to fetch company"); err != nil {
		return nil, err
	}
	co := d.toDomain()
	return &co, nil
}

func (c *HTTPClient) CreateCompany(ctx context.Context, in evaluation.Company) (*evaluation.Company, error) {
	body := map[string]string{"name": in.Name}
	if in.Description != "" {
		body["description"] = in.Description
	}
	if in.Website != "" {
		body["website"] = in.Website
	}
	var d companyDTO
	if err := c.doJSON(ctx, http.MethodPost, "/companies", body, &d, "Failed to create company"); err != nil {
		return nil, err
	}
	co := d.toDomain()
	if co.Name == "" {
		co.Name = in.Name
	}
	return &co, nil
}

func (c *HTTPClient) DeleteCompany(ctx context.Context, id evaluation.CompanyID) error {
	return c.doJSON(ctx, http.MethodDelete, "/companies/"+url.PathEscape(string(id)), nil, nil, "Failed to delete company")
}

func (c *HTTPClient) ListProjects(ctx context.Context, companyID evaluation.CompanyID) ([]evaluation.Project, error) {
	var raw json.RawMessage
	path := "/companies/" + url.PathEscape(string(companyID)) + "/projects"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &raw, "Failed to fetch projects"); err != nil {
		return nil, err
	}
	dtos, err := decodeList[projectDTO](raw, "projects")
	if err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	out := make([]evaluation.Project, 0, len(dtos))
	for _, d := range dtos {
		p := d.toDomain()
		if p.CompanyID == "" {
			p.CompanyID = companyID
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *HTTPClient) GetProject(ctx context.Context, id evaluation.ProjectID) (*evaluation.Project, error) {
	var d projectDTO
	if err := c.doJSON(ctx, http.MethodGet, "/projects/"+url.PathEscape(string(id)), nil, &d, "Failed to fetch project"); err != nil {
		return nil, err
	}
	p := d.toDomain()
	return &p, nil
}

func (c *HTTPClient) CreateProject(ctx context.Context, companyID evaluation.CompanyID, in evaluation.Project) (*evaluation.Project, error) {
	body := map[string]string{"name": in.Name}
	for k, v := range map[string]string{
		"description": in.Description,
		"domain":      in.Domain,
		"nation":      in.Nation,
		"state":       in.State,
	} {
		if v != "" {
			body[k] = v
		}
	}
	var d projectDTO
	path := "/companies/" + url.PathEscape(string(companyID)) + "/projects"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &d, "Failed to create project"); err != nil {
		return nil, err
	}
	p := d.toDomain()
	if p.CompanyID == "" {
		p.CompanyID = companyID
	}
	return &p, nil
}

func (c *HTTPClient) DeleteProject(ctx context.Context, id evaluation.ProjectID) error {
	return c.doJSON(ctx, http.MethodDelete, "/projects/"+url.PathEscape(string(id)), nil, nil, "Failed to delete project")
}

// GetPromptQuestions returns nil, nil when the project was never analyzed.
func (c *HTTPClient) GetPromptQuestions(ctx context.Context, id evaluation.ProjectID) (*evaluation.PromptQuestions, error) {
	var d promptQuestionsDTO
	path := "/projects/" + url.PathEscape(string(id)) + "/prompt-questions"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &d, "Failed to fetch prompt questions"); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if d.ID == "" && len(d.QnA) == 0 && len(d.Analysis) == 0 {
		return nil, nil
	}
	pq, err := d.toDomain()
	if err != nil {
		return nil, fmt.Errorf("decode website analysis: %w", err)
	}
	return pq, nil
}

func (c *HTTPClient) ListCategories(ctx context.Context) ([]evaluation.Category, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/categories", nil, &raw, "Failed to fetch categories"); err != nil {
		return nil, err
	}
	cats, err := decodeList[evaluation.Category](raw, "categories")
	if err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return cats, nil
}
