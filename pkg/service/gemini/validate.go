package gemini

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"github.com/xeipuuv/gojsonschema"
)

// stripFences removes a surrounding markdown code fence, if any
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line such as "json"
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeValidated validates text against schema and decodes it into out
func decodeValidated(text string, schema *gojsonschema.Schema, out any) error {
	body := stripFences(text)
	if body == "" {
		return goerr.Wrap(model.ErrMalformedResponse, "empty response body")
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return goerr.Wrap(errors.Join(model.ErrMalformedResponse, err), "response is not valid JSON",
			goerr.V("body", truncate(body, 256)))
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			violations = append(violations, e.String())
		}
		return goerr.Wrap(model.ErrMalformedResponse, "response does not match schema",
			goerr.V("violations", violations))
	}

	if err := json.Unmarshal([]byte(body), out); err != nil {
		return goerr.Wrap(errors.Join(model.ErrMalformedResponse, err), "failed to decode response")
	}
	return nil
}

// analysisPayload accepts fractional scores; they are rounded to the nearest integer
type analysisPayload struct {
	model.AnalysisResult
	HealthScore float64 `json:"healthScore"`
}

func parseAnalysis(text string) (*model.AnalysisResult, error) {
	var payload analysisPayload
	if err := decodeValidated(text, analysisValidator, &payload); err != nil {
		return nil, err
	}

	result := payload.AnalysisResult
	result.HealthScore = int(math.Round(payload.HealthScore))
	if result.OptimizationTips == nil {
		result.OptimizationTips = []string{}
	}
	return &result, nil
}

func parseQuickAudit(text string) (*model.QuickAuditResult, error) {
	var result model.QuickAuditResult
	if err := decodeValidated(text, quickAuditValidator, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func parseIdentification(text string) (*model.Identification, error) {
	var result model.Identification
	if err := decodeValidated(text, identificationValidator, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
