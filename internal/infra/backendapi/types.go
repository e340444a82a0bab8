package backendapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
)

// FlexID accepts ids encoded as JSON strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// flexTime tolerates the timestamp layouts the backend emits, with or
// without zone. Unparseable values decode as the zero time.
type flexTime time.Time

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		*t = flexTime{}
		return nil
	}
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = flexTime(v)
			return nil
		}
	}
	*t = flexTime{}
	return nil
}

func (t flexTime) Time() time.Time { return time.Time(t) }

// Backend documents use either "id" or "_id".
type companyDTO struct {
	ID          FlexID   `json:"id"`
	MongoID     FlexID   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Website     string   `json:"website"`
	CreatedAt   flexTime `json:"created_at"`
}

func (d companyDTO) toDomain() evaluation.Company {
	return evaluation.Company{
		ID:          evaluation.CompanyID(firstID(d.ID, d.MongoID)),
		Name:        d.Name,
		Description: d.Description,
		Website:     d.Website,
		CreatedAt:   d.CreatedAt.Time(),
	}
}

type projectDTO struct {
	ID          FlexID   `json:"id"`
	MongoID     FlexID   `json:"_id"`
	CompanyID   FlexID   `json:"company_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Domain      string   `json:"domain"`
	Nation      string   `json:"nation"`
	State       string   `json:"state"`
	CreatedAt   flexTime `json:"created_at"`
}

func (d projectDTO) toDomain() evaluation.Project {
	return evaluation.Project{
		ID:          evaluation.ProjectID(firstID(d.ID, d.MongoID)),
		CompanyID:   evaluation.CompanyID(d.CompanyID),
		Name:        d.Name,
		Description: d.Description,
		Domain:      d.Domain,
		Nation:      d.Nation,
		State:       d.State,
		CreatedAt:   d.CreatedAt.Time(),
	}
}

type questionDTO struct {
	ID         FlexID `json:"id"`
	UUID       string `json:"uuid"`
	Category   string `json:"category"`
	CategoryID FlexID `json:"category_id"`
	Text       string `json:"text"`
	Question   string `json:"question"`
}

func (d questionDTO) toDomain(idx int) evaluation.Question {
	text := d.Text
	if text == "" {
		text = d.Question
	}
	id := string(d.ID)
	if id == "" {
		id = strconv.Itoa(idx + 1)
	}
	return evaluation.Question{
		ID:         id,
		UUID:       d.UUID,
		Category:   d.Category,
		CategoryID: string(d.CategoryID),
		Text:       text,
	}
}

// promptQuestionsDTO: chatgpt_website_analysis is usually a JSON-encoded
// string but older records hold the object itself.
type promptQuestionsDTO struct {
	ID         FlexID           `json:"_id"`
	WebsiteURL string           `json:"website_url"`
	Nation     string           `json:"nation"`
	State      string           `json:"state"`
	Context    string           `json:"context"`
	Analysis   json.RawMessage  `json:"chatgpt_website_analysis"`
	QnA        []evaluation.QnA `json:"qna"`
}

func (d promptQuestionsDTO) toDomain() (*evaluation.PromptQuestions, error) {
	pq := &evaluation.PromptQuestions{
		ID:         string(d.ID),
		WebsiteURL: d.WebsiteURL,
		Nation:     d.Nation,
		State:      d.State,
		Context:    d.Context,
		QnA:        d.QnA,
	}
	raw := bytes.TrimSpace(d.Analysis)
	if len(raw) == 0 || string(raw) == "null" {
		return pq, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == "" {
			return pq, nil
		}
		raw = []byte(s)
	}
	var a evaluation.Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	pq.Analysis = &a
	return pq, nil
}

func firstID(ids ...FlexID) string {
	for _, id := range ids {
		if id != "" {
			return string(id)
		}
	}
	return ""
}
