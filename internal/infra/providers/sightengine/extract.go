package sightengine

import (
	"encoding/json"
	"fmt"

	"github.com/verilens/verilens/internal/domain/analysis"
)

// The provider's response schema has drifted across revisions: the deepfake
// likelihood has been observed under deepfake.prob and under type.deepfake.
// Extraction therefore walks an ordered list of candidate locations and
// defaults to 0 when none is present.

type apiResponse struct {
	Status   string     `json:"status"`
	Deepfake *probBlock `json:"deepfake"`
	Type     *typeBlock `json:"type"`
	Media    *media     `json:"media"`
	Scenes   []scene    `json:"scenes"`
	Error    *apiError  `json:"error"`
}

type probBlock struct {
	Prob *float64 `json:"prob"`
}

type typeBlock struct {
	Deepfake *float64 `json:"deepfake"`
}

type scene struct {
	Deepfake *probBlock `json:"deepfake"`
	Type     *typeBlock `json:"type"`
}

type media struct {
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Format   string   `json:"format"`
	Duration *float64 `json:"duration"`
	FPS      *float64 `json:"fps"`
}

type apiError struct {
	Message string `json:"message"`
}

type scoreExtractor func(deepfake *probBlock, typ *typeBlock) (float64, bool)

// Candidate score locations, most recent schema first.
var scoreExtractors = []scoreExtractor{
	func(d *probBlock, _ *typeBlock) (float64, bool) {
		if d != nil && d.Prob != nil {
			return *d.Prob, true
		}
		return 0, false
	},
	func(_ *probBlock, t *typeBlock) (float64, bool) {
		if t != nil && t.Deepfake != nil {
			return *t.Deepfake, true
		}
		return 0, false
	},
}

func extractScore(deepfake *probBlock, typ *typeBlock) float64 {
	for _, ex := range scoreExtractors {
		if v, ok := ex(deepfake, typ); ok {
			return v
		}
	}
	return 0
}

func decode(body []byte) (*apiResponse, error) {
	var r apiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("malformed provider response: %w", err)
	}
	if r.Status != "success" {
		msg := "provider returned unsuccessful status"
		if r.Error != nil && r.Error.Message != "" {
			msg = r.Error.Message
		}
		return nil, fmt.Errorf("%s", msg)
	}
	return &r, nil
}

func parseImage(body []byte) (analysis.ProviderResult, error) {
	r, err := decode(body)
	if err != nil {
		return analysis.ProviderResult{}, err
	}

	md := map[string]any{
		"width":  "unknown",
		"height": "unknown",
		"format": "unknown",
	}
	if r.Media != nil {
		if r.Media.Width != nil {
			md["width"] = *r.Media.Width
		}
		if r.Media.Height != nil {
			md["height"] = *r.Media.Height
		}
		if r.Media.Format != "" {
			md["format"] = r.Media.Format
		}
	}

	return analysis.ProviderResult{
		Status:   "success",
		Origin:   analysis.OriginProvider,
		Score:    extractScore(r.Deepfake, r.Type),
		Metadata: md,
		Raw:      json.RawMessage(body),
	}, nil
}

func parseVideo(body []byte) (analysis.ProviderResult, error) {
	r, err := decode(body)
	if err != nil {
		return analysis.ProviderResult{}, err
	}

	// The most alarming signal wins: max over the summary score and every
	// per-scene score, never an average.
	score := extractScore(r.Deepfake, r.Type)
	for _, s := range r.Scenes {
		if v := extractScore(s.Deepfake, s.Type); v > score {
			score = v
		}
	}

	md := map[string]any{
		"duration":   "unknown",
		"fps":        "unknown",
		"resolution": "?x?",
	}
	if r.Media != nil {
		if r.Media.Duration != nil {
			md["duration"] = *r.Media.Duration
		}
		if r.Media.FPS != nil {
			md["fps"] = *r.Media.FPS
		}
		w, h := "?", "?"
		if r.Media.Width != nil {
			w = fmt.Sprintf("%.0f", *r.Media.Width)
		}
		if r.Media.Height != nil {
			h = fmt.Sprintf("%.0f", *r.Media.Height)
		}
		md["resolution"] = w + "x" + h
	}

	return analysis.ProviderResult{
		Status:   "success",
		Origin:   analysis.OriginProvider,
		Score:    score,
		Metadata: md,
		Raw:      json.RawMessage(body),
	}, nil
}
