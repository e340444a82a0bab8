package navigation

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
)

// ErrInvalidInput is returned for rejected create requests.
var ErrInvalidInput = domain.ErrInvalidInput

// Service is the company → project → dashboard shell over the backend.
type Service struct {
	Directory domain.Directory

	// OnProjectDeleted, if set, runs after a project is removed so the open
	// dashboard state is dropped too.
	OnProjectDeleted func(domain.ProjectID)
}

// CompanyView is a company with its projects.
type CompanyView struct {
	Company  domain.Company   `json:"company"`
	Projects []domain.Project `json:"projects"`
}

func (s *Service) Companies(ctx context.Context) ([]domain.Company, error) {
	out, err := s.Directory.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Company{}
	}
	return out, nil
}

func (s *Service) Company(ctx context.Context, id domain.CompanyID) (*domain.Company, error) {
	c, err := s.Directory.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: company %s", domain.ErrNotFound, id)
	}
	return c, nil
}

// CreateCompany requires a non-empty name.
func (s *Service) CreateCompany(ctx context.Context, c domain.Company) (*domain.Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	c.Description = strings.TrimSpace(c.Description)
	c.Website = strings.TrimSpace(c.Website)
	return s.Directory.CreateCompany(ctx, c)
}

func (s *Service) DeleteCompany(ctx context.Context, id domain.CompanyID) error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: company id is required", ErrInvalidInput)
	}
	return s.Directory.DeleteCompany(ctx, id)
}

func (s *Service) Projects(ctx context.Context, companyID domain.CompanyID) ([]domain.Project, error) {
	out, err := s.Directory.ListProjects(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Project{}
	}
	return out, nil
}

func (s *Service) Project(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	p, err := s.Directory.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	return p, nil
}

// CreateProject requires a name. The domain is normalised and the nation
// defaults to USA.
func (s *Service) CreateProject(ctx context.Context, companyID domain.CompanyID, p domain.Project) (*domain.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(string(companyID)) == "" {
		return nil, fmt.Errorf("%w: company id is required", ErrInvalidInput)
	}
	p.CompanyID = companyID
	p.Domain = domain.NormalizeDomain(p.Domain)
	p.Nation = strings.TrimSpace(p.Nation)
	if p.Nation == "" {
		p.Nation = domain.DefaultNation
	}
	p.State = strings.TrimSpace(p.State)
	return s.Directory.CreateProject(ctx, companyID, p)
}

func (s *Service) DeleteProject(ctx context.Context, id domain.ProjectID) error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if err := s.Directory.DeleteProject(ctx, id); err != nil {
		return err
	}
	if s.OnProjectDeleted != nil {
		s.OnProjectDeleted(id)
	}
	return nil
}

// CompanyWithProjects loads the company and its projects concurrently.
func (s *Service) CompanyWithProjects(ctx context.Context, id domain.CompanyID) (*CompanyView, error) {
	var (
		company  *domain.Company
		projects []domain.Project
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.Company(gCtx, id)
		company = c
		return err
	})
	g.Go(func() error {
		ps, err := s.Projects(gCtx, id)
		projects = ps
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &CompanyView{Company: *company, Projects: projects}, nil
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	out, err := s.Directory.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Category{}
	}
	return out, nil
}
