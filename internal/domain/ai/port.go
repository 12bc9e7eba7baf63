package ai

import (
	"context"

	"github.com/verilens/verilens/internal/domain/analysis"
)

// Client produces a short plain-language explanation of a verdict.
type Client interface {
	Explain(ctx context.Context, res *analysis.Result) (string, error)
}
