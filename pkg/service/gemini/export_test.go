package gemini

import (
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"google.golang.org/genai"
)

var (
	StripFences         = stripFences
	ParseAnalysis       = parseAnalysis
	ParseQuickAudit     = parseQuickAudit
	ParseIdentification = parseIdentification
	SampleRate          = sampleRate
	WrapPCM             = wrapPCM
	AnalysisUserText    = analysisUserText
)

func ExtractSources(resp *genai.GenerateContentResponse) []model.GroundingSource {
	return extractSources(resp)
}
