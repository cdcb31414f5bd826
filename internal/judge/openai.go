package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"lacuna/internal/model"
	"lacuna/internal/score"
)

// OpenAIJudge implements the Judge interface over OpenAI-compatible chat
// completion endpoints
type OpenAIJudge struct {
	client *openai.Client
	config model.JudgeConfig
}

// NewOpenAIJudge creates a new OpenAI-backed judge
func NewOpenAIJudge(config model.JudgeConfig) (*OpenAIJudge, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIJudge{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (j *OpenAIJudge) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (j *OpenAIJudge) IsAvailable(ctx context.Context) bool {
	_, err := j.client.ListModels(ctx)
	return err == nil
}

// Judge evaluates one claim and returns the raw judgment. Any response that
// does not decode into the exact judgment schema is a hard error.
func (j *OpenAIJudge) Judge(ctx context.Context, req Request) (model.Judgment, error) {
	timeout := j.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: j.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(req),
			},
		},
		Temperature: req.Sampling.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := j.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return model.Judgment{}, fmt.Errorf("judgment call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Judgment{}, fmt.Errorf("judgment call: empty response")
	}

	return parseJudgment(resp.Choices[0].Message.Content)
}

const systemPrompt = `You are an evidence quality judge for a systematic literature review.
You rate how well an extracted claim supports a requirement. You never rate
truth, only support quality. Respond with a single JSON object and nothing else.`

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Requirement %s: %s\n", req.Requirement.ID, req.Requirement.Name)
	if req.Requirement.Description != "" {
		fmt.Fprintf(&b, "Definition: %s\n", req.Requirement.Description)
	}
	fmt.Fprintf(&b, "\nClaim:\n%s\n\n", req.ClaimText)
	b.WriteString(`Rate the claim on these dimensions and reply with JSON only:
{
  "strength": 1-5,          // how strongly the text supports the claim
  "rigor": 1-5,             // methodological rigor of the underlying work
  "relevance": 1-5,         // relevance to the requirement definition
  "directness": 1-3,        // 3 = stated directly, 1 = inferred
  "is_recent": true|false,  // work appears current for its field
  "reproducibility": 1-5,   // likelihood the result can be reproduced
  "rationale": "one or two sentences"
}`)
	return b.String()
}

// rawJudgment decodes with pointer fields so an absent dimension is
// distinguishable from a zero value. The range check downstream catches the
// int dimensions at 0, but a missing is_recent would otherwise coerce to
// false and score anyway.
type rawJudgment struct {
	Strength        *int   `json:"strength"`
	Rigor           *int   `json:"rigor"`
	Relevance       *int   `json:"relevance"`
	Directness      *int   `json:"directness"`
	IsRecent        *bool  `json:"is_recent"`
	Reproducibility *int   `json:"reproducibility"`
	Rationale       string `json:"rationale"`
}

// parseJudgment strictly decodes the judge's response. Unknown fields,
// missing dimensions, and trailing content are rejected: a malformed
// response must fail loudly rather than pass a plausible-looking score
// downstream.
func parseJudgment(content string) (model.Judgment, error) {
	content = stripFences(content)

	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()

	var raw rawJudgment
	if err := dec.Decode(&raw); err != nil {
		return model.Judgment{}, fmt.Errorf("malformed judgment response: %w", err)
	}
	if dec.More() {
		return model.Judgment{}, fmt.Errorf("malformed judgment response: trailing content")
	}

	for field, present := range map[string]bool{
		"strength":        raw.Strength != nil,
		"rigor":           raw.Rigor != nil,
		"relevance":       raw.Relevance != nil,
		"directness":      raw.Directness != nil,
		"is_recent":       raw.IsRecent != nil,
		"reproducibility": raw.Reproducibility != nil,
	} {
		if !present {
			return model.Judgment{}, &score.ValidationError{Field: field, Reason: "is missing"}
		}
	}

	return model.Judgment{
		Strength:        *raw.Strength,
		Rigor:           *raw.Rigor,
		Relevance:       *raw.Relevance,
		Directness:      *raw.Directness,
		IsRecent:        *raw.IsRecent,
		Reproducibility: *raw.Reproducibility,
		Rationale:       raw.Rationale,
	}, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON in one
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
