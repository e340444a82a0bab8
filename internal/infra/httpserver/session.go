package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	appeval "github.com/bryanwahyu/geo-authority/internal/application/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
	"github.com/bryanwahyu/geo-authority/internal/middleware"
)

// sessionView is the dashboard payload: the view-model plus derived fields.
type sessionView struct {
	domain.Session
	Stats     domain.Stats `json:"stats"`
	Busy      string       `json:"busy,omitempty"`
	CanExport bool         `json:"can_export"`
}

func (r *Router) view(sess domain.Session) sessionView {
	return sessionView{
		Session:   sess,
		Stats:     sess.Stats(),
		Busy:      r.svc.Evaluation.Busy(sess.ProjectID),
		CanExport: sess.CanExport(),
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

func (r *Router) validProvider(p string) error {
	p = strings.ToLower(strings.TrimSpace(p))
	if p != "" && !r.svc.Evaluation.Assistants.Has(p) {
		return fmt.Errorf("%w: %q", assistant.ErrUnknownProvider, p)
	}
	return nil
}

// GET /v1/projects/{projectID}/session
func (r *Router) handleSession(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	sess, err := r.svc.Evaluation.Session(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.view(sess))
}

// POST /v1/projects/{projectID}/session/reload
func (r *Router) handleReload(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	sess, err := r.svc.Evaluation.Load(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.view(sess))
}

func decodeInput(req *http.Request) (appeval.Input, error) {
	var in appeval.Input
	if err := decodeJSON(req, &in, true); err != nil {
		return in, err
	}
	in.QueryContext = middleware.SanitizeString(in.QueryContext)
	in.State = middleware.SanitizeString(in.State)
	in.Nation = middleware.SanitizeString(in.Nation)
	if in.Domain != "" {
		if err := middleware.ValidateDomain(domain.NormalizeDomain(in.Domain)); err != nil {
			return in, invalid(err)
		}
	}
	return in, nil
}

// PUT /v1/projects/{projectID}/session/input
// Body: {"domain", "nation", "state", "queryContext"}
func (r *Router) handleUpdateInput(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	in, err := decodeInput(req)
	if err != nil {
		return err
	}
	sess, err := r.svc.Evaluation.UpdateInput(req.Context(), id, in)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.view(sess))
}

// POST /v1/projects/{projectID}/session/analyze
// Runs analyze + question generation in the background; poll the session.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	in, err := decodeInput(req)
	if err != nil {
		return err
	}
	// claim before queueing so a conflicting run is reported here, not lost
	run, err := r.svc.Evaluation.PrepareStart(req.Context(), id, in)
	if err != nil {
		return err
	}
	r.background(req, "analyze", id, func(ctx context.Context) error {
		_, err := run(ctx)
		return err
	})
	return queued(w, "analyze", id, "")
}

// POST /v1/projects/{projectID}/session/run-all
func (r *Router) handleRunAll(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	run, err := r.svc.Evaluation.PrepareEvaluate(req.Context(), id)
	if err != nil {
		return err
	}
	r.background(req, "run-all", id, func(ctx context.Context) error {
		_, err := run(ctx)
		return err
	})
	return queued(w, "run-all", id, "")
}

// POST /v1/projects/{projectID}/session/pause
func (r *Router) handlePause(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	sess, err := r.svc.Evaluation.Pause(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.view(sess))
}

// POST /v1/projects/{projectID}/session/resume
func (r *Router) handleResume(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	sess, err := r.svc.Evaluation.Resume(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.view(sess))
}

// POST /v1/projects/{projectID}/session/cancel
func (r *Router) handleCancel(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	if err := r.svc.Evaluation.Cancel(req.Context(), id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// POST /v1/projects/{projectID}/session/questions
// Body: {"question", "category_id", "category_name", "provider"}
func (r *Router) handleAddQuestion(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	var body appeval.NewQuestion
	if err := decodeJSON(req, &body, false); err != nil {
		return err
	}
	body.Text = middleware.SanitizeString(body.Text)
	if body.Text == "" {
		return invalid(fmt.Errorf("question cannot be empty"))
	}
	if err := r.validProvider(body.Provider); err != nil {
		return err
	}

	sess, newID, err := r.svc.Evaluation.AddQuestion(req.Context(), id, body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"id": newID, "session": r.view(sess)})
}

// PATCH /v1/projects/{projectID}/session/questions/{resultID}
// Body: {"question"?, "provider"?}
func (r *Router) handleEditQuestion(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	rid, err := resultID(req)
	if err != nil {
		return err
	}
	var body struct {
		Question *string `json:"question"`
		Provider *string `json:"provider"`
	}
	if err := decodeJSON(req, &body, false); err != nil {
		return err
	}
	if body.Question == nil && body.Provider == nil {
		return invalid(fmt.Errorf("nothing to update"))
	}

	sess, err := r.svc.Evaluation.Session(req.Context(), id)
	if err != nil {
		return err
	}
	if body.Provider != nil {
		if err := r.validProvider(*body.Provider); err != nil {
			return err
		}
		if sess, err = r.svc.Evaluation.SelectProvider(req.Context(), id, rid, strings.ToLower(*body.Provider)); err != nil {
			return err
		}
	}
	if body.Question != nil {
		text := middleware.SanitizeString(*body.Question)
		if text == "" {
			return invalid(fmt.Errorf("question cannot be empty"))
		}
		if sess, err = r.svc.Evaluation.EditQuestion(req.Context(), id, rid, text); err != nil {
			return err
		}
	}
	return writeJSON(w, http.StatusOK, r.view(sess))
}

// DELETE /v1/projects/{projectID}/session/questions/{resultID}
func (r *Router) handleDeleteQuestion(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	rid, err := resultID(req)
	if err != nil {
		return err
	}
	sess, err := r.svc.Evaluation.DeleteQuestion(req.Context(), id, rid)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.view(sess))
}

// POST /v1/projects/{projectID}/session/questions/{resultID}/run
// Body (optional): {"provider": "gemini"}
func (r *Router) handleRunSingle(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	rid, err := resultID(req)
	if err != nil {
		return err
	}
	var body struct {
		Provider string `json:"provider"`
	}
	if err := decodeJSON(req, &body, true); err != nil {
		return err
	}
	provider := strings.ToLower(strings.TrimSpace(body.Provider))
	if err := r.validProvider(provider); err != nil {
		return err
	}

	sess, err := r.svc.Evaluation.Session(req.Context(), id)
	if err != nil {
		return err
	}
	row, ok := sess.Find(rid)
	if !ok {
		return fmt.Errorf("%w: question %s", domain.ErrNotFound, rid)
	}
	if row.Loading || r.svc.Evaluation.Busy(id) == "analyze" {
		return fmt.Errorf("%w: question %s is running", domain.ErrBusy, rid)
	}

	r.background(req, "run-single", id, func(ctx context.Context) error {
		_, err := r.svc.Evaluation.RunSingle(ctx, id, rid, provider)
		return err
	})
	return queued(w, "run-single", id, rid)
}

// GET /v1/projects/{projectID}/session/questions/{resultID}/highlight
func (r *Router) handleHighlight(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	rid, err := resultID(req)
	if err != nil {
		return err
	}
	tokens, err := r.svc.Evaluation.Highlight(req.Context(), id, rid)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"id": rid, "tokens": tokens})
}

// POST /v1/projects/{projectID}/session/metrics/recalculate
func (r *Router) handleRecalculate(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	sess, err := r.svc.Evaluation.RecalculateMetrics(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.view(sess))
}

// GET /v1/projects/{projectID}/session/metrics/history?limit=10
func (r *Router) handleMetricsHistory(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	sess, err := r.svc.Evaluation.Session(req.Context(), id)
	if err != nil {
		return err
	}
	out := []*metrics.Snapshot{}
	if r.svc.Metrics != nil && sess.PromptQuestionsID != "" {
		hist, err := r.svc.Metrics.History(req.Context(), sess.PromptQuestionsID, limit)
		if err != nil {
			return err
		}
		if hist != nil {
			out = hist
		}
	}
	return writeJSON(w, http.StatusOK, out)
}

// GET /v1/projects/{projectID}/session/failures?limit=20
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	id, err := projectID(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.Evaluation.FailureLog(req.Context(), id, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
