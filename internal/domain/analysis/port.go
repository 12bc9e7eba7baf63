package analysis

import "context"

// Analyzer port (interface for provider adapters). Implementations degrade
// provider failures to a demo-mode ProviderResult; errors are reserved for
// local I/O problems and quota exhaustion.
type Analyzer interface {
	Analyze(ctx context.Context, filePath string) (ProviderResult, error)
}

// AnalyzerFunc adapts a function to the Analyzer port.
type AnalyzerFunc func(ctx context.Context, filePath string) (ProviderResult, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, filePath string) (ProviderResult, error) {
	return f(ctx, filePath)
}

// ReportStore port (interface for archiving raw provider responses).
type ReportStore interface {
	PutReport(ctx context.Context, key string, report []byte) (string, error)
}
