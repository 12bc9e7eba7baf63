// Package demo generates synthetic analysis results used whenever a real
// provider is unavailable: missing credentials, transport failures, or
// categories with no integration yet. The distributions are placeholders,
// not detectors.
package demo

import (
	"math/rand"
	"sync"
	"time"

	"github.com/verilens/verilens/internal/domain/analysis"
)

type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}

// Image fabricates a vision verdict: ~20% flagged with scores 0.7-1.0,
// otherwise authentic with scores 0.1-0.5.
func (g *Generator) Image(note, errCause string) analysis.ProviderResult {
	score, flaggedNote := g.visionScore()
	return analysis.ProviderResult{
		Status: "success",
		Origin: analysis.OriginDemo,
		Score:  score,
		Metadata: map[string]any{
			"width":  1024,
			"height": 768,
			"format": "demo",
		},
		DemoMode: true,
		Note:     note + flaggedNote,
		ErrCause: errCause,
	}
}

// Video fabricates a vision verdict with video-shaped metadata.
func (g *Generator) Video(note, errCause string) analysis.ProviderResult {
	score, flaggedNote := g.visionScore()
	return analysis.ProviderResult{
		Status: "success",
		Origin: analysis.OriginDemo,
		Score:  score,
		Metadata: map[string]any{
			"duration":   15.6,
			"fps":        30,
			"resolution": "1920x1080",
			"format":     "demo",
		},
		DemoMode: true,
		Note:     note + flaggedNote,
		ErrCause: errCause,
	}
}

func (g *Generator) visionScore() (float64, string) {
	if g.float() > 0.8 {
		return g.float()*0.3 + 0.7, ": simulated deepfake detection"
	}
	return g.float()*0.4 + 0.1, ": simulated authentic media"
}

// Audio fabricates a voice-synthesis verdict: a 50/50 split with asymmetric
// confidence bands (synthetic 0.70-0.95, authentic 0.75-0.95).
func (g *Generator) Audio() analysis.ProviderResult {
	synthetic := g.float() > 0.5

	var confidence float64
	note := "demo mode: simulated authentic voice"
	if synthetic {
		confidence = g.float()*0.25 + 0.70
		note = "demo mode: simulated synthetic voice detection"
	} else {
		confidence = g.float()*0.20 + 0.75
	}

	return analysis.ProviderResult{
		Status:  "success",
		Origin:  analysis.OriginDemo,
		Score:   confidence,
		Flagged: synthetic,
		Metadata: map[string]any{
			"duration":    8.5,
			"sample_rate": 44100,
			"channels":    2,
		},
		DemoMode: true,
		Note:     note,
	}
}
