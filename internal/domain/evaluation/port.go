package evaluation

import "context"

// AnalyzeRequest for the website analysis collaborator
type AnalyzeRequest struct {
	Domain       string    `json:"domain"`
	Nation       string    `json:"nation"`
	State        string    `json:"state"`
	QueryContext string    `json:"queryContext"`
	CompanyID    CompanyID `json:"company_id,omitempty"`
	ProjectID    ProjectID `json:"project_id,omitempty"`
}

// AnalyzeResult carries the brand profile and the question-set key.
type AnalyzeResult struct {
	Analysis          Analysis
	PromptQuestionsID string
}

// GenerateRequest for the question generation collaborator
type GenerateRequest struct {
	Analysis          Analysis `json:"analysis"`
	Domain            string   `json:"domain"`
	Nation            string   `json:"nation"`
	State             string   `json:"state"`
	PromptQuestionsID string   `json:"prompt_questions_id,omitempty"`
}

// Pipeline port (interface untuk analyze + generate)
type Pipeline interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)
	GenerateQuestions(ctx context.Context, req GenerateRequest) ([]Question, error)
}

// ProjectSource port: project lookup and stored question sets.
// GetPromptQuestions returns nil, nil when the project has none.
type ProjectSource interface {
	GetProject(ctx context.Context, id ProjectID) (*Project, error)
	GetPromptQuestions(ctx context.Context, id ProjectID) (*PromptQuestions, error)
}

// Directory port for the navigation shell
type Directory interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	GetCompany(ctx context.Context, id CompanyID) (*Company, error)
	CreateCompany(ctx context.Context, c Company) (*Company, error)
	DeleteCompany(ctx context.Context, id CompanyID) error
	ListProjects(ctx context.Context, companyID CompanyID) ([]Project, error)
	GetProject(ctx context.Context, id ProjectID) (*Project, error)
	CreateProject(ctx context.Context, companyID CompanyID, p Project) (*Project, error)
	DeleteProject(ctx context.Context, id ProjectID) error
	ListCategories(ctx context.Context) ([]Category, error)
}
