package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/timmy/shopvec/internal/dataset"
	"github.com/timmy/shopvec/internal/domain"
	"github.com/timmy/shopvec/internal/hub"
	"github.com/timmy/shopvec/internal/logger"
	"github.com/timmy/shopvec/internal/repository"
)

// ConvertService runs the fetch-merge-export pipeline: download the feature
// and image-URL tables, inner-join them, project product records, and write
// one JSON array.
type ConvertService struct {
	hub    *hub.Client
	runs   *repository.RunRepository // nil disables run history
	logger *logger.Logger
	cfg    *ConvertConfig
}

// ConvertConfig holds configuration for the convert pipeline.
type ConvertConfig struct {
	RepoID          string
	FeaturesFile    string
	ImagesFile      string
	JoinColumn      string
	EmbeddingColumn string
	ImageColumn     string
	MaxItems        int
	OutputFile      string
}

// ConvertStats holds statistics for a convert run.
type ConvertStats struct {
	MergedRows     int
	OutputRecords  int
	DroppedRows    int // join-key misses on either side
	SkippedRecords int // merged rows that failed projection
	StartTime      time.Time
	EndTime        time.Time
}

// NewConvertService creates a new convert service.
func NewConvertService(hubClient *hub.Client, runs *repository.RunRepository, log *logger.Logger, cfg *ConvertConfig) *ConvertService {
	return &ConvertService{
		hub:    hubClient,
		runs:   runs,
		logger: log,
		cfg:    cfg,
	}
}

// log returns the context logger if one is attached, otherwise the
// service's own logger.
func (s *ConvertService) log(ctx context.Context) *logger.Logger {
	if l, ok := logger.ContextLogger(ctx); ok {
		return l
	}
	if s.logger != nil {
		return s.logger
	}
	return logger.FromContext(ctx)
}

// Run executes the pipeline. Retrieval and schema failures abort the run
// with nothing written; per-row projection failures skip the row and are
// surfaced as a count.
func (s *ConvertService) Run(ctx context.Context) (*ConvertStats, error) {
	stats := &ConvertStats{StartTime: time.Now()}
	run := s.beginRun(ctx, domain.PipelineConvert)

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldDataset: s.cfg.RepoID,
		"features_file":     s.cfg.FeaturesFile,
		"images_file":       s.cfg.ImagesFile,
		"max_items":         s.cfg.MaxItems,
	}).Info("Starting download and conversion")

	featuresPath, err := s.hub.Download(ctx, s.cfg.RepoID, s.cfg.FeaturesFile)
	if err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("downloading %s: %w", s.cfg.FeaturesFile, err))
	}
	imagesPath, err := s.hub.Download(ctx, s.cfg.RepoID, s.cfg.ImagesFile)
	if err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("downloading %s: %w", s.cfg.ImagesFile, err))
	}

	features, err := dataset.LoadParquet(featuresPath)
	if err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("loading features table: %w", err))
	}
	s.log(ctx).WithFields(logger.Fields{
		"rows":    features.NumRows(),
		"columns": features.Columns,
	}).Info("Loaded features table")

	images, err := dataset.LoadParquet(imagesPath)
	if err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("loading images table: %w", err))
	}
	s.log(ctx).WithFields(logger.Fields{
		"rows":    images.NumRows(),
		"columns": images.Columns,
	}).Info("Loaded images table")

	joined, err := dataset.InnerJoin(features, images, s.cfg.JoinColumn)
	if err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("merging tables: %w", err))
	}
	merged := joined.Table
	stats.MergedRows = merged.NumRows()
	stats.DroppedRows = joined.DroppedLeft + joined.DroppedRight
	s.log(ctx).WithFields(logger.Fields{
		"merged_rows":   stats.MergedRows,
		"dropped_left":  joined.DroppedLeft,
		"dropped_right": joined.DroppedRight,
	}).Info("Merged tables")

	if !merged.HasColumn(s.cfg.EmbeddingColumn) {
		err := fmt.Errorf("embedding column %q not found, available columns: %v",
			s.cfg.EmbeddingColumn, merged.Columns)
		return nil, s.failRun(ctx, run, stats, err)
	}

	products, skipped := projectRecords(merged, s.cfg)
	stats.OutputRecords = len(products)
	stats.SkippedRecords = skipped
	if skipped > 0 {
		s.log(ctx).WithField(logger.FieldCount, skipped).Warn("Skipped malformed rows during projection")
	}

	if err := writeJSONArray(s.cfg.OutputFile, products); err != nil {
		return nil, s.failRun(ctx, run, stats, err)
	}

	stats.EndTime = time.Now()
	s.completeRun(ctx, run, stats)
	s.log(ctx).WithFields(logger.Fields{
		logger.FieldCount:      stats.OutputRecords,
		"skipped":              stats.SkippedRecords,
		"dropped":              stats.DroppedRows,
		"output":               s.cfg.OutputFile,
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
	}).Info("Conversion completed")

	return stats, nil
}

// projectRecords turns merged rows into product records in table order, up
// to cfg.MaxItems. A row that cannot be projected contributes nothing and
// processing continues; the count of such rows is returned.
func projectRecords(merged *dataset.Table, cfg *ConvertConfig) ([]domain.Product, int) {
	products := make([]domain.Product, 0, min(merged.NumRows(), cfg.MaxItems))
	skipped := 0

	for _, row := range merged.Rows {
		if len(products) >= cfg.MaxItems {
			break
		}
		p, err := projectRow(row, cfg)
		if err != nil {
			skipped++
			continue
		}
		products = append(products, p)
	}
	return products, skipped
}

func projectRow(row dataset.Row, cfg *ConvertConfig) (domain.Product, error) {
	id, ok := dataset.KeyString(row[cfg.JoinColumn])
	if !ok {
		return domain.Product{}, fmt.Errorf("missing join key %q", cfg.JoinColumn)
	}

	vec, err := domain.AsVector(row[cfg.EmbeddingColumn])
	if err != nil {
		return domain.Product{}, fmt.Errorf("embedding for %s: %w", id, err)
	}

	var image *string
	if s, ok := row[cfg.ImageColumn].(string); ok {
		image = &s
	}

	return domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Image:    image,
		Vector:   vec,
		Metadata: domain.Metadata{Type: domain.MetadataTypeProduct},
	}, nil
}

// writeJSONArray serializes records as one compact JSON array, creating
// parent directories first. An empty slice writes "[]".
func writeJSONArray(path string, products []domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("serializing records: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

func (s *ConvertService) beginRun(ctx context.Context, pipeline string) *domain.PipelineRun {
	if s.runs == nil {
		return nil
	}
	run, err := s.runs.Begin(ctx, pipeline)
	if err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record run start")
		return nil
	}
	return run
}

func (s *ConvertService) completeRun(ctx context.Context, run *domain.PipelineRun, stats *ConvertStats) {
	if run == nil {
		return
	}
	run.TotalItems = stats.MergedRows
	run.OutputItems = stats.OutputRecords
	run.DroppedRows = stats.DroppedRows
	run.SkippedRecords = stats.SkippedRecords
	run.OutputPath = s.cfg.OutputFile
	if err := s.runs.Complete(ctx, run); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record run completion")
	}
}

func (s *ConvertService) failRun(ctx context.Context, run *domain.PipelineRun, stats *ConvertStats, err error) error {
	stats.EndTime = time.Now()
	if run != nil {
		run.TotalItems = stats.MergedRows
		run.DroppedRows = stats.DroppedRows
		if ferr := s.runs.Fail(ctx, run, err); ferr != nil {
			s.log(ctx).WithError(ferr).Warn("Failed to record run failure")
		}
	}
	return err
}
