package prompt

import (
	"fmt"

	"github.com/verilens/verilens/internal/domain/analysis"
)

// GetSystemPrompt constrains the model to a short plain-text explanation.
func GetSystemPrompt() string {
	return `You are an assistant for a media authenticity service. Given a verdict from an automated deepfake detector, write a 2-3 sentence plain-language explanation for a non-technical user. State what was analyzed, the verdict, and how confident the detector was. If the verdict came from demo mode, say clearly that no real detector was consulted. Output plain text only: no markdown, no lists, no JSON.`
}

// GetUserPrompt summarizes one analysis result for the model.
func GetUserPrompt(res *analysis.Result) string {
	verdict := "authentic"
	if res.IsDeepfake {
		verdict = "likely manipulated"
	}
	demo := "a real detection provider"
	if provider := providerData(res); provider != nil && provider.DemoMode {
		demo = "demo mode (no real provider was consulted)"
	}
	return fmt.Sprintf("Media type: %s. Verdict: %s. Detector score: %.2f on a 0-1 scale. Source: %s.",
		res.Type, verdict, res.Confidence, demo)
}

func providerData(res *analysis.Result) *analysis.ProviderResult {
	if res.ResembleData != nil {
		return res.ResembleData
	}
	return res.SightengineData
}
