// Package resemble stands in for a voice-synthesis detector. No real
// integration exists for audio yet; the client produces synthetic verdicts
// after a fixed delay so the caller-facing latency resembles a real provider.
// A production integration should replace the body of Analyze while keeping
// the same adapter contract the vision client follows.
package resemble

import (
	"context"
	"time"

	"github.com/verilens/verilens/internal/domain/analysis"
	"github.com/verilens/verilens/internal/infra/providers/demo"
)

// Service is the key this client records outbound calls under.
const Service = "resemble"

const defaultDelay = 2 * time.Second

type Client struct {
	apiKey string
	delay  time.Duration
	demo   *demo.Generator
}

func New(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		delay:  defaultDelay,
		demo:   demo.NewGenerator(),
	}
}

// WithDelay overrides the simulated latency, for tests.
func (c *Client) WithDelay(d time.Duration) *Client {
	c.delay = d
	return c
}

// Configured reports whether an API key is present. The verdicts stay
// synthetic either way until a real integration lands.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Analyze produces a synthetic voice-authenticity verdict after the
// configured delay. The delay is cancellable through ctx.
func (c *Client) Analyze(ctx context.Context, filePath string) (analysis.ProviderResult, error) {
	timer := time.NewTimer(c.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return analysis.ProviderResult{}, ctx.Err()
	case <-timer.C:
	}

	return c.demo.Audio(), nil
}
