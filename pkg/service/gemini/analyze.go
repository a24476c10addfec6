package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/model"
	"google.golang.org/genai"
)

const (
	quickAuditPrompt = "Rapid Audit: ID plant, health status, and 3 key care tips. Be concise and professional."
	identifyPrompt   = "Identify this plant. Return its species and the sun exposure, watering frequency and soil it needs, plus one care tip."
	quickTipPrompt   = "One short care tip for %s. Max 15 words."
)

func analysisUserText(notes string) string {
	return "User Observation: " + notes + "\nRun full 5-level orchestrator analysis."
}

func imagePart(img model.Image) *genai.Part {
	return genai.NewPartFromBytes(img.Data, img.MIMEType)
}

// Analyze runs the five-level analysis of one observation with web grounding
func (c *Client) Analyze(ctx context.Context, obs model.Observation) (*model.AnalysisResult, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(obs.Context.SystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    analysisResponseSchema,
		Tools:             groundingTools(),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(c.thinkingBudget)},
	}

	resp, err := c.generate(ctx, "analyze", c.analysisModel,
		userContent(imagePart(obs.Image), genai.NewPartFromText(analysisUserText(obs.UserNotes))),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	result, err := parseAnalysis(resp.Text())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse analysis", goerr.V("plant", obs.Context.PlantName))
	}
	result.Sources = extractSources(resp)
	return result, nil
}

// QuickAudit is a stateless rapid check of a photo
func (c *Client) QuickAudit(ctx context.Context, img model.Image) (*model.QuickAuditResult, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   quickAuditResponseSchema,
		Tools:            groundingTools(),
	}

	resp, err := c.generate(ctx, "quick_audit", c.fastModel,
		userContent(imagePart(img), genai.NewPartFromText(quickAuditPrompt)),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	result, err := parseQuickAudit(resp.Text())
	if err != nil {
		return nil, err
	}
	result.Sources = extractSources(resp)
	return result, nil
}

// Identify suggests the species and basic care parameters of a new plant
func (c *Client) Identify(ctx context.Context, img model.Image) (*model.Identification, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   identificationResponseSchema,
	}

	resp, err := c.generate(ctx, "identify", c.fastModel,
		userContent(imagePart(img), genai.NewPartFromText(identifyPrompt)),
		cfg,
	)
	if err != nil {
		return nil, err
	}
	return parseIdentification(resp.Text())
}

func (c *Client) QuickTip(ctx context.Context, species string) (string, error) {
	resp, err := c.generate(ctx, "quick_tip", c.fastModel,
		userContent(genai.NewPartFromText(fmt.Sprintf(quickTipPrompt, species))),
		nil,
	)
	if err != nil {
		return "", err
	}

	tip := strings.TrimSpace(resp.Text())
	if tip == "" {
		return "", goerr.Wrap(model.ErrMalformedResponse, "empty tip", goerr.V("species", species))
	}
	return tip, nil
}

// extractSources collects the web references of the first candidate, de-duplicated by URI
func extractSources(resp *genai.GenerateContentResponse) []model.GroundingSource {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}

	var sources []model.GroundingSource
	seen := make(map[string]struct{})
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		if _, ok := seen[chunk.Web.URI]; ok {
			continue
		}
		seen[chunk.Web.URI] = struct{}{}

		title := chunk.Web.Title
		if title == "" {
			title = chunk.Web.Domain
		}
		sources = append(sources, model.GroundingSource{Title: title, URI: chunk.Web.URI})
	}
	return sources
}
