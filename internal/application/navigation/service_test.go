package navigation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
)

type memDirectory struct {
	mu        sync.Mutex
	companies map[domain.CompanyID]domain.Company
	projects  map[domain.ProjectID]domain.Project
	listErr   error
	next      int
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		companies: map[domain.CompanyID]domain.Company{},
		projects:  map[domain.ProjectID]domain.Project{},
	}
}

func (m *memDirectory) ListCompanies(context.Context) ([]domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Company
	for _, c := range m.companies {
		out = append(out, c)
	}
	return out, nil
}

func (m *memDirectory) GetCompany(_ context.Context, id domain.CompanyID) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memDirectory) CreateCompany(_ context.Context, c domain.Company) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	c.ID = domain.CompanyID("c" + string(rune('0'+m.next)))
	m.companies[c.ID] = c
	return &c, nil
}

func (m *memDirectory) DeleteCompany(_ context.Context, id domain.CompanyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.companies, id)
	return nil
}

func (m *memDirectory) ListProjects(_ context.Context, companyID domain.CompanyID) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Project
	for _, p := range m.projects {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memDirectory) GetProject(_ context.Context, id domain.ProjectID) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memDirectory) CreateProject(_ context.Context, companyID domain.CompanyID, p domain.Project) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	p.ID = domain.ProjectID("p" + string(rune('0'+m.next)))
	m.projects[p.ID] = p
	return &p, nil
}

func (m *memDirectory) DeleteProject(_ context.Context, id domain.ProjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

func (m *memDirectory) ListCategories(context.Context) ([]domain.Category, error) {
	return nil, nil
}

func TestCreateCompanyValidation(t *testing.T) {
	svc := &Service{Directory: newMemDirectory()}

	_, err := svc.CreateCompany(context.Background(), domain.Company{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	c, err := svc.CreateCompany(context.Background(), domain.Company{Name: "  Acme Inc "})
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", c.Name)
}

func TestCreateProjectNormalises(t *testing.T) {
	svc := &Service{Directory: newMemDirectory()}

	_, err := svc.CreateProject(context.Background(), "c1", domain.Project{Domain: "acme.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := svc.CreateProject(context.Background(), "c1", domain.Project{Name: "Austin", Domain: "https://WWW.Acme.com/services"})
	require.NoError(t, err)
	assert.Equal(t, "www.acme.com", p.Domain)
	assert.Equal(t, "USA", p.Nation)
	assert.Equal(t, domain.CompanyID("c1"), p.CompanyID)
}

func TestDeleteProjectNotifies(t *testing.T) {
	dir := newMemDirectory()
	var dropped []domain.ProjectID
	svc := &Service{Directory: dir, OnProjectDeleted: func(id domain.ProjectID) { dropped = append(dropped, id) }}

	p, err := svc.CreateProject(context.Background(), "c1", domain.Project{Name: "Austin"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProject(context.Background(), p.ID))
	assert.Equal(t, []domain.ProjectID{p.ID}, dropped)

	_, err = svc.Project(context.Background(), p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompanyWithProjects(t *testing.T) {
	dir := newMemDirectory()
	svc := &Service{Directory: dir}
	ctx := context.Background()

	c, err := svc.CreateCompany(ctx, domain.Company{Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, c.ID, domain.Project{Name: "Austin", Domain: "acme.com"})
	require.NoError(t, err)

	view, err := svc.CompanyWithProjects(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", view.Company.Name)
	assert.Len(t, view.Projects, 1)

	_, err = svc.CompanyWithProjects(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	dir.listErr = errors.New("backend down")
	_, err = svc.CompanyWithProjects(ctx, c.ID)
	assert.EqualError(t, err, "backend down")
}

func TestEmptyListsAreNotNil(t *testing.T) {
	svc := &Service{Directory: newMemDirectory()}
	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cats)

	cs, err := svc.Companies(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cs)
}
