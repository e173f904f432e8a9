package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Role identifies the author of a message in a completion request.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	Tier        ModelTier `json:"tier"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
}

// Usage reports token consumption for a completion call.
type Usage struct {
	PromptTokens     int32 `json:"prompt_tokens"`
	CompletionTokens int32 `json:"completion_tokens"`
}

// Add accumulates another call's usage into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// Response is the result of a successful completion call.
type Response struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Client is an abstraction over LLM providers.
type Client interface {
	// Complete generates free text for the request.
	Complete(ctx context.Context, req Request) (*Response, error)
	// CompleteJSON generates a response constrained to JSON output, with
	// markdown code-block wrappers stripped.
	CompleteJSON(ctx context.Context, req Request) (*Response, error)
	// Close releases any resources held by the client.
	Close() error
}

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &APICallError{Message: "API key is required", Status: 401}
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, classify("failed to create Gemini client", err)
	}

	return &GeminiClient{client: client, config: config}, nil
}

// Complete generates free text for the request.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	return c.generate(ctx, req, "")
}

// CompleteJSON generates JSON-constrained output for the request.
func (c *GeminiClient) CompleteJSON(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.generate(ctx, req, "application/json")
	if err != nil {
		return nil, err
	}
	resp.Text = CleanJSONBlock(resp.Text)
	return resp, nil
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GeminiClient) generate(ctx context.Context, req Request, mimeType string) (*Response, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return nil, &APICallError{Message: fmt.Sprintf("no model configured for tier %s", req.Tier)}
	}

	model := c.client.GenerativeModel(modelName)
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if mimeType != "" {
		model.ResponseMIMEType = mimeType
	}

	var parts []genai.Part
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
		default:
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	if len(parts) == 0 {
		return nil, &APICallError{Message: "request has no user content"}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, classify("failed to generate content", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}

	result := &Response{Text: text}
	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
		}
	}
	return result, nil
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &APICallError{Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &APICallError{Message: "no content in response"}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", &APICallError{Message: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
