package gemini

import (
	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

func stringSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func stringArraySchema(desc string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: desc,
		Items:       &genai.Schema{Type: genai.TypeString},
	}
}

var analysisResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"level1_observation":          stringSchema("What is visibly present in the photo"),
		"level2_hypothesis":           stringSchema("Likely causes of what was observed"),
		"level3_plan":                 stringSchema("Concrete care plan"),
		"level4_verification":         stringSchema("How to verify the plan is working"),
		"level5_comparative_analysis": stringSchema("Comparison against the previous observations"),
		"optimization_tips":           stringArraySchema("Short optimization tips"),
		"updatedThoughtSignature":     stringSchema("Compact memory of this plant carried to the next analysis"),
		"healthScore": {
			Type:        genai.TypeInteger,
			Description: "Overall health from 0 to 100",
			Minimum:     genai.Ptr(0.0),
			Maximum:     genai.Ptr(100.0),
		},
		"care_summary": stringSchema("One paragraph summary for the owner"),
	},
	Required: []string{
		"level1_observation",
		"level2_hypothesis",
		"level3_plan",
		"level4_verification",
		"level5_comparative_analysis",
		"optimization_tips",
		"updatedThoughtSignature",
		"healthScore",
		"care_summary",
	},
}

var quickAuditResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"species":           stringSchema("Identified species"),
		"healthStatus":      stringSchema("Short health status"),
		"urgentCare":        stringArraySchema("Up to three urgent care tips"),
		"longTermAdvice":    stringSchema("Long term advice"),
		"scientificInsight": stringSchema("One scientific insight"),
		"confidenceScore":   {Type: genai.TypeNumber, Description: "Identification confidence from 0 to 1"},
	},
	Required: []string{"species", "healthStatus", "urgentCare", "longTermAdvice", "scientificInsight", "confidenceScore"},
}

var identificationResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"species":           stringSchema("Species name"),
		"sunExposure":       stringSchema("Recommended sun exposure"),
		"wateringFrequency": stringSchema("Recommended watering frequency"),
		"soilType":          stringSchema("Recommended soil"),
		"care_tip":          stringSchema("One care tip"),
	},
	Required: []string{"species", "sunExposure", "wateringFrequency", "soilType", "care_tip"},
}

// JSON Schema mirrors of the response schemas. Every response is validated
// against these before it is decoded.

const analysisJSONSchema = `{
  "type": "object",
  "required": [
    "level1_observation", "level2_hypothesis", "level3_plan", "level4_verification",
    "level5_comparative_analysis", "optimization_tips", "updatedThoughtSignature",
    "healthScore", "care_summary"
  ],
  "properties": {
    "level1_observation": {"type": "string"},
    "level2_hypothesis": {"type": "string"},
    "level3_plan": {"type": "string"},
    "level4_verification": {"type": "string"},
    "level5_comparative_analysis": {"type": "string"},
    "optimization_tips": {"type": "array", "items": {"type": "string"}},
    "updatedThoughtSignature": {"type": "string"},
    "healthScore": {"type": "number", "minimum": 0, "maximum": 100},
    "care_summary": {"type": "string"}
  }
}`

const quickAuditJSONSchema = `{
  "type": "object",
  "required": ["species", "healthStatus", "urgentCare", "longTermAdvice", "scientificInsight", "confidenceScore"],
  "properties": {
    "species": {"type": "string"},
    "healthStatus": {"type": "string"},
    "urgentCare": {"type": "array", "items": {"type": "string"}},
    "longTermAdvice": {"type": "string"},
    "scientificInsight": {"type": "string"},
    "confidenceScore": {"type": "number"}
  }
}`

const identificationJSONSchema = `{
  "type": "object",
  "required": ["species"],
  "properties": {
    "species": {"type": "string", "minLength": 1},
    "sunExposure": {"type": "string"},
    "wateringFrequency": {"type": "string"},
    "soilType": {"type": "string"},
    "care_tip": {"type": "string"}
  }
}`

var (
	analysisValidator       = mustSchema(analysisJSONSchema)
	quickAuditValidator     = mustSchema(quickAuditJSONSchema)
	identificationValidator = mustSchema(identificationJSONSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return schema
}
