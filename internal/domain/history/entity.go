package history

import (
	"time"

	"github.com/verilens/verilens/internal/domain/analysis"
)

// Record is one persisted analysis outcome. The uploaded media itself is
// never retained; a record references at most an archived report JSON.
type Record struct {
	ID             string            `json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	Category       analysis.Category `json:"category"`
	FileName       string            `json:"file_name"`
	SizeBytes      int64             `json:"size_bytes"`
	IsDeepfake     bool              `json:"is_deepfake"`
	Confidence     float64           `json:"confidence"`
	AnalysisTimeMS int64             `json:"analysis_time_ms"`
	DemoMode       bool              `json:"demo_mode"`
	ReportURL      string            `json:"report_url,omitempty"`
}
