package ai

import (
	"context"

	"github.com/verilens/verilens/internal/domain/ai"
	"github.com/verilens/verilens/internal/domain/analysis"
)

type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Explain(ctx context.Context, res *analysis.Result) (string, error) {
	return s.client.Explain(ctx, res)
}
