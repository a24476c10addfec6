package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// AnalysisResult is the structured five-level response of the reasoning engine.
// The core only interprets HealthScore and UpdatedThoughtSignature; the rest is stored as-is.
type AnalysisResult struct {
	Observation             string            `json:"level1_observation"`
	Hypothesis              string            `json:"level2_hypothesis"`
	Plan                    string            `json:"level3_plan"`
	Verification            string            `json:"level4_verification"`
	ComparativeAnalysis     string            `json:"level5_comparative_analysis"`
	OptimizationTips        []string          `json:"optimization_tips"`
	UpdatedThoughtSignature string            `json:"updatedThoughtSignature"`
	HealthScore             int               `json:"healthScore"`
	CareSummary             string            `json:"care_summary"`
	Sources                 []GroundingSource `json:"sources,omitempty"`
}

// GroundingSource is a web reference the engine cited
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// QuickAuditResult is the outcome of a stateless rapid audit. It is never persisted.
type QuickAuditResult struct {
	Species           string            `json:"species"`
	HealthStatus      string            `json:"healthStatus"`
	UrgentCare        []string          `json:"urgentCare"`
	LongTermAdvice    string            `json:"longTermAdvice"`
	ScientificInsight string            `json:"scientificInsight"`
	ConfidenceScore   float64           `json:"confidenceScore"`
	Sources           []GroundingSource `json:"sources,omitempty"`
}

// Identification pre-fills a new Plant from a photo
type Identification struct {
	Species           string `json:"species"`
	SunExposure       string `json:"sunExposure"`
	WateringFrequency string `json:"wateringFrequency"`
	SoilType          string `json:"soilType"`
	CareTip           string `json:"care_tip"`
}

// Image is raw image bytes with their MIME type
type Image struct {
	Data     []byte
	MIMEType string
}

// ImageRef is an opaque, content-addressed handle to a stored image ("sha256:<hex>")
type ImageRef string

const imageRefPrefix = "sha256:"

// NewImageRef derives the content address of data
func NewImageRef(data []byte) ImageRef {
	sum := sha256.Sum256(data)
	return ImageRef(imageRefPrefix + hex.EncodeToString(sum[:]))
}

// Valid reports whether ref has the content-address form
func (ref ImageRef) Valid() bool {
	s := string(ref)
	if !strings.HasPrefix(s, imageRefPrefix) {
		return false
	}
	digest := strings.TrimPrefix(s, imageRefPrefix)
	if len(digest) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}

// HealthAlert is raised when a committed entry shows a low or sharply dropping health score
type HealthAlert struct {
	PlantID       PlantID
	PlantName     string
	Species       string
	Score         int
	PreviousScore *int
	Summary       string
}
