package analysis

import "encoding/json"

// Category of an uploaded media file.
type Category string

const (
	CategoryImage       Category = "image"
	CategoryVideo       Category = "video"
	CategoryAudio       Category = "audio"
	CategoryUnsupported Category = "unsupported"
)

// Supported MIME types per category.
var (
	imageTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	}
	videoTypes = map[string]bool{
		"video/mp4":  true,
		"video/webm": true,
		"video/mov":  true,
	}
	audioTypes = map[string]bool{
		"audio/wav": true,
		"audio/mp3": true,
		"audio/m4a": true,
		"audio/ogg": true,
	}
)

// CategoryOf maps a declared MIME type onto a media category.
func CategoryOf(mimeType string) Category {
	switch {
	case imageTypes[mimeType]:
		return CategoryImage
	case videoTypes[mimeType]:
		return CategoryVideo
	case audioTypes[mimeType]:
		return CategoryAudio
	default:
		return CategoryUnsupported
	}
}

// Upload is a media file persisted to transient storage for the lifetime
// of a single request. It is removed unconditionally before the response
// is written.
type Upload struct {
	Path         string
	MimeType     string
	SizeBytes    int64
	OriginalName string
}

// Origin discriminates a real provider verdict from a synthetic demo one.
// Both variants satisfy the same normalized contract.
type Origin string

const (
	OriginProvider Origin = "provider"
	OriginDemo     Origin = "demo"
)

// ProviderResult is the normalized output of a provider adapter.
// Score is in [0,1]; higher means more likely manipulated. Flagged is the
// adapter's verdict after applying its decision threshold to Score.
type ProviderResult struct {
	Status   string          `json:"status"`
	Origin   Origin          `json:"origin"`
	Score    float64         `json:"score"`
	Flagged  bool            `json:"flagged"`
	Metadata map[string]any  `json:"metadata,omitempty"`
	Raw      json.RawMessage `json:"raw_response,omitempty"`
	DemoMode bool            `json:"demo_mode,omitempty"`
	Note     string          `json:"demo_note,omitempty"`
	ErrCause string          `json:"error_message,omitempty"`
}

// Result is the response payload for one analysis. Type determines which
// provider-data field is populated; the two are mutually exclusive.
type Result struct {
	Type            Category        `json:"type"`
	IsDeepfake      bool            `json:"isDeepfake"`
	Confidence      float64         `json:"confidence"`
	AnalysisTimeMS  int64           `json:"analysisTime"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	SightengineData *ProviderResult `json:"sightengineData,omitempty"`
	ResembleData    *ProviderResult `json:"resembleData,omitempty"`
	Explanation     string          `json:"explanation,omitempty"`
}
