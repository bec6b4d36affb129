package domain

import "time"

// RunStatus represents the status of a pipeline run.
// Values include RunStatusRunning, RunStatusCompleted, and RunStatusFailed.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Pipeline name constants.
const (
	PipelineConvert = "convert"
	PipelineSplit   = "split"
)

// PipelineRun records one execution of a pipeline and the counts the
// pipelines would otherwise throw away (dropped join rows, skipped
// projections). Bookkeeping only; the pipelines never read it back.
type PipelineRun struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	Pipeline       string     `gorm:"type:text;not null;index" json:"pipeline"`
	Status         RunStatus  `gorm:"default:running" json:"status"`
	TotalItems     int        `gorm:"default:0" json:"total_items"`
	OutputItems    int        `gorm:"default:0" json:"output_items"`
	DroppedRows    int        `gorm:"default:0" json:"dropped_rows"`
	SkippedRecords int        `gorm:"default:0" json:"skipped_records"`
	Chunks         int        `gorm:"default:0" json:"chunks"`
	OutputPath     string     `gorm:"type:text" json:"output_path"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorLog       string     `json:"error_log,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for PipelineRun.
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
