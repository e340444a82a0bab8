package export

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bryanwahyu/geo-authority/internal/application"
	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/exports"
	"github.com/bryanwahyu/geo-authority/internal/domain/report"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

// SessionSource yields the current view-model of a project.
type SessionSource interface {
	Session(ctx context.Context, id domain.ProjectID) (domain.Session, error)
}

// Encoder turns a workbook into file bytes.
type Encoder interface {
	Encode(wb report.Workbook) ([]byte, error)
}

// Service builds, encodes and optionally archives spreadsheet reports.
type Service struct {
	Sessions  SessionSource
	Encoder   Encoder
	Artifacts exports.ArtifactStore // optional
	Ledger    exports.Repository    // optional
	Clock     application.Clock

	ContentType      string
	KnownCompetitors []string // nil = report defaults
}

// Result of one export
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
	Record      *exports.Export
}

// Export builds the report of a project's current session. With an artifact
// store configured the bytes are archived under exports/<project>/.
func (s *Service) Export(ctx context.Context, id domain.ProjectID, variant exports.Variant) (*Result, error) {
	res, err := s.build(ctx, id, variant)
	if err != nil {
		return nil, err
	}
	if s.Artifacts != nil {
		url, err := s.Artifacts.Put(ctx, artifactKey(id, res.Filename), res.Data, res.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload report: %w", err)
		}
		res.Record.ArtifactURL = url
	}
	s.record(ctx, res.Record)
	return res, nil
}

func (s *Service) build(ctx context.Context, id domain.ProjectID, variant exports.Variant) (*Result, error) {
	sess, err := s.Sessions.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.AnyLoading() {
		return nil, fmt.Errorf("%w: evaluation in progress", report.ErrExportUnavailable)
	}

	now := s.Clock.Now()
	opts := report.Options{
		BrandName:        sess.BrandName(),
		Domain:           sess.Domain,
		Nation:           sess.Nation,
		State:            sess.State,
		GeneratedAt:      now,
		KnownCompetitors: s.KnownCompetitors,
	}

	var wb report.Workbook
	switch variant {
	case exports.VariantAuthority:
		wb, err = report.BuildAuthority(sess.Results, opts)
	default:
		variant = exports.VariantComprehensive
		snap := sess.Metrics
		if snap.Empty() {
			snap = nil
		}
		wb, err = report.BuildComprehensive(sess.Results, snap, opts)
	}
	if err != nil {
		return nil, err
	}

	data, err := s.Encoder.Encode(wb)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	stats := sess.Stats()
	rec := &exports.Export{
		ID:             exports.ExportID(uuid.NewString()),
		ProjectID:      string(id),
		Variant:        variant,
		Filename:       wb.Filename,
		VisibilityRate: stats.Score,
		TotalQuestions: stats.Total,
		CreatedAt:      now,
	}
	return &Result{Filename: wb.Filename, ContentType: s.contentType(), Data: data, Record: rec}, nil
}

// ExportToFile writes the report into dir. With upload set and an artifact
// store configured, the written file is uploaded as well.
func (s *Service) ExportToFile(ctx context.Context, id domain.ProjectID, variant exports.Variant, dir string, upload bool) (string, *exports.Export, error) {
	res, err := s.build(ctx, id, variant)
	if err != nil {
		return "", nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, res.Filename)
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", nil, fmt.Errorf("write report: %w", err)
	}

	if upload && s.Artifacts != nil {
		url, err := s.Artifacts.Upload(ctx, path, artifactKey(id, res.Filename))
		if err != nil {
			return path, res.Record, fmt.Errorf("upload report: %w", err)
		}
		res.Record.ArtifactURL = url
	}
	s.record(ctx, res.Record)
	return path, res.Record, nil
}

// List pages through the export ledger of a project.
func (s *Service) List(ctx context.Context, id domain.ProjectID, page, pageSize int) (exports.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if s.Ledger == nil {
		return exports.PaginatedResult{Data: []*exports.Export{}, Page: page, PageSize: pageSize}, nil
	}
	items, total, err := s.Ledger.Paginate(ctx, string(id), page, pageSize)
	if err != nil {
		return exports.PaginatedResult{}, err
	}
	if items == nil {
		items = []*exports.Export{}
	}
	return exports.PaginatedResult{
		Data:       items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (s *Service) record(ctx context.Context, rec *exports.Export) {
	if s.Ledger == nil {
		return
	}
	if err := s.Ledger.Save(ctx, rec); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("project_id", rec.ProjectID).
			Str("filename", rec.Filename).
			Msg("failed to record export")
	}
}

func (s *Service) contentType() string {
	if s.ContentType == "" {
		return "application/octet-stream"
	}
	return s.ContentType
}

func artifactKey(id domain.ProjectID, filename string) string {
	return fmt.Sprintf("exports/%s/%s", id, filename)
}
