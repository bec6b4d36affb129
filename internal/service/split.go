package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/timmy/shopvec/internal/domain"
	"github.com/timmy/shopvec/internal/logger"
	"github.com/timmy/shopvec/internal/repository"
	"github.com/timmy/shopvec/internal/storage"
)

// chunkFilePattern names chunk files: 0-indexed, no zero padding.
const chunkFilePattern = "products_chunk_%d.json"

// indexFileName is the generated module listing every chunk in order.
const indexFileName = "index.ts"

// SplitService runs the chunk-split pipeline: partition one JSON array file
// into fixed-size chunk files plus a generated index module, and optionally
// publish the artifacts to object storage.
type SplitService struct {
	storage storage.ObjectStorage     // nil disables publishing
	runs    *repository.RunRepository // nil disables run history
	logger  *logger.Logger
	cfg     *SplitConfig
}

// SplitConfig holds configuration for the split pipeline.
type SplitConfig struct {
	InputFile string
	OutputDir string
	ChunkSize int
	Publish   bool
}

// SplitStats holds statistics for a split run.
type SplitStats struct {
	TotalItems int
	Chunks     int
	Published  int
	StartTime  time.Time
	EndTime    time.Time
}

// NewSplitService creates a new split service.
func NewSplitService(store storage.ObjectStorage, runs *repository.RunRepository, log *logger.Logger, cfg *SplitConfig) *SplitService {
	return &SplitService{
		storage: store,
		runs:    runs,
		logger:  log,
		cfg:     cfg,
	}
}

func (s *SplitService) log(ctx context.Context) *logger.Logger {
	if l, ok := logger.ContextLogger(ctx); ok {
		return l
	}
	if s.logger != nil {
		return s.logger
	}
	return logger.FromContext(ctx)
}

// Run executes the pipeline. A missing input file aborts with nothing
// written. Chunk files are written in index order; an error mid-loop leaves
// the chunks written so far in place.
func (s *SplitService) Run(ctx context.Context) (*SplitStats, error) {
	stats := &SplitStats{StartTime: time.Now()}
	run := s.beginRun(ctx)

	if s.cfg.ChunkSize <= 0 {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("chunk size must be positive, got %d", s.cfg.ChunkSize))
	}

	if _, err := os.Stat(s.cfg.InputFile); err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("input file %s not found: %w", s.cfg.InputFile, err))
	}

	data, err := os.ReadFile(s.cfg.InputFile)
	if err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("reading input file: %w", err))
	}

	// RawMessage keeps each record's bytes intact, so re-running the split
	// on the same input produces byte-identical chunk files.
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("parsing input file: %w", err))
	}

	stats.TotalItems = len(items)
	stats.Chunks = (len(items) + s.cfg.ChunkSize - 1) / s.cfg.ChunkSize
	s.log(ctx).WithFields(logger.Fields{
		"total_items": stats.TotalItems,
		"chunks":      stats.Chunks,
		"chunk_size":  s.cfg.ChunkSize,
	}).Info("Splitting into chunks")

	if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("creating output directory: %w", err))
	}

	for i := 0; i < stats.Chunks; i++ {
		start := i * s.cfg.ChunkSize
		end := min(start+s.cfg.ChunkSize, len(items))

		chunkData, err := json.Marshal(items[start:end])
		if err != nil {
			return nil, s.failRun(ctx, run, stats, fmt.Errorf("serializing chunk %d: %w", i, err))
		}

		name := fmt.Sprintf(chunkFilePattern, i)
		path := filepath.Join(s.cfg.OutputDir, name)
		if err := os.WriteFile(path, chunkData, 0644); err != nil {
			return nil, s.failRun(ctx, run, stats, fmt.Errorf("writing chunk %d: %w", i, err))
		}
		s.log(ctx).WithFields(logger.Fields{
			"chunk":          name,
			"items":          end - start,
			logger.FieldSize: len(chunkData),
		}).Debug("Saved chunk")
	}

	indexContent := buildIndexModule(stats.Chunks)
	indexPath := filepath.Join(s.cfg.OutputDir, indexFileName)
	if err := os.WriteFile(indexPath, []byte(indexContent), 0644); err != nil {
		return nil, s.failRun(ctx, run, stats, fmt.Errorf("writing index module: %w", err))
	}

	if s.cfg.Publish && s.storage != nil {
		published, err := s.publish(ctx, stats.Chunks)
		if err != nil {
			return nil, s.failRun(ctx, run, stats, err)
		}
		stats.Published = published
	}

	stats.EndTime = time.Now()
	s.completeRun(ctx, run, stats)
	s.log(ctx).WithFields(logger.Fields{
		"chunks":               stats.Chunks,
		"total_items":          stats.TotalItems,
		"output_dir":           s.cfg.OutputDir,
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
	}).Info("Split completed")

	return stats, nil
}

// buildIndexModule renders the chunk index module: an ordered collection
// with one require() per chunk file, exported as the default.
func buildIndexModule(numChunks int) string {
	lines := make([]string, 0, numChunks+3)
	lines = append(lines, "const chunks = [")
	for i := 0; i < numChunks; i++ {
		lines = append(lines, fmt.Sprintf("  require('./"+chunkFilePattern+"'),", i))
	}
	lines = append(lines, "];", "export default chunks;")
	return strings.Join(lines, "\n")
}

// publish uploads the chunk files and index module to object storage under
// a chunks/ prefix.
func (s *SplitService) publish(ctx context.Context, numChunks int) (int, error) {
	if err := s.storage.EnsureBucket(ctx); err != nil {
		return 0, fmt.Errorf("ensuring bucket: %w", err)
	}

	published := 0
	upload := func(name, contentType string) error {
		data, err := os.ReadFile(filepath.Join(s.cfg.OutputDir, name))
		if err != nil {
			return fmt.Errorf("reading %s for publish: %w", name, err)
		}
		key := "chunks/" + name
		if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			return fmt.Errorf("uploading %s: %w", name, err)
		}
		s.log(ctx).WithField("url", s.storage.GetURL(key)).Debug("Published artifact")
		published++
		return nil
	}

	for i := 0; i < numChunks; i++ {
		if err := upload(fmt.Sprintf(chunkFilePattern, i), "application/json"); err != nil {
			return published, err
		}
	}
	if err := upload(indexFileName, "text/plain; charset=utf-8"); err != nil {
		return published, err
	}
	return published, nil
}

func (s *SplitService) beginRun(ctx context.Context) *domain.PipelineRun {
	if s.runs == nil {
		return nil
	}
	run, err := s.runs.Begin(ctx, domain.PipelineSplit)
	if err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record run start")
		return nil
	}
	return run
}

func (s *SplitService) completeRun(ctx context.Context, run *domain.PipelineRun, stats *SplitStats) {
	if run == nil {
		return
	}
	run.TotalItems = stats.TotalItems
	run.OutputItems = stats.TotalItems
	run.Chunks = stats.Chunks
	run.OutputPath = s.cfg.OutputDir
	if err := s.runs.Complete(ctx, run); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record run completion")
	}
}

func (s *SplitService) failRun(ctx context.Context, run *domain.PipelineRun, stats *SplitStats, err error) error {
	stats.EndTime = time.Now()
	if run != nil {
		run.TotalItems = stats.TotalItems
		run.Chunks = stats.Chunks
		if ferr := s.runs.Fail(ctx, run, err); ferr != nil {
			s.log(ctx).WithError(ferr).Warn("Failed to record run failure")
		}
	}
	return err
}
