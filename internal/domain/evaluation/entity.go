package evaluation

import "time"

// CompanyID / ProjectID are backend identifiers.
type CompanyID string
type ProjectID string

// Company owns many projects
type Company struct {
	ID          CompanyID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Project is one domain + location to evaluate
type Project struct {
	ID          ProjectID `json:"id"`
	CompanyID   CompanyID `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Domain      string    `json:"domain"`
	Nation      string    `json:"nation"`
	State       string    `json:"state,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Category as managed by the backend
type Category struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Analysis is the brand profile produced once per evaluation run.
type Analysis struct {
	BrandName string   `json:"brandName"`
	Niche     string   `json:"niche"`
	Purpose   string   `json:"purpose"`
	Services  []string `json:"services"`
}

// Result is one question/answer row of the dashboard.
type Result struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	CategoryID string `json:"categoryId,omitempty"`
	UUID       string `json:"uuid,omitempty"`
	Question   string `json:"question"`
	FullAnswer string `json:"fullAnswer"`
	Found      bool   `json:"found"`
	Loading    bool   `json:"loading"`
	Provider   string `json:"provider,omitempty"`
}

// HasAnswer: found is only meaningful when this is true.
func (r Result) HasAnswer() bool { return r.FullAnswer != "" }

// Outcome is what the dashboard shows in the status column.
func (r Result) Outcome() string {
	switch {
	case r.Loading:
		return "loading"
	case !r.HasAnswer():
		return "pending"
	case r.Found:
		return "found"
	default:
		return "miss"
	}
}

// Question as generated by the backend
type Question struct {
	ID         string `json:"id"`
	UUID       string `json:"uuid,omitempty"`
	Category   string `json:"category"`
	CategoryID string `json:"category_id,omitempty"`
	Text       string `json:"text"`
}

// PromptQuestions is the stored snapshot of a project's last run.
type PromptQuestions struct {
	ID         string    `json:"_id"`
	WebsiteURL string    `json:"website_url"`
	Nation     string    `json:"nation"`
	State      string    `json:"state"`
	Context    string    `json:"context"`
	Analysis   *Analysis `json:"-"`
	QnA        []QnA     `json:"qna"`
}

// QnA is one stored question/answer pair.
type QnA struct {
	UUID         string `json:"uuid"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Capture      bool   `json:"capture"`
}
