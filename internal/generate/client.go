package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kyleking/asksql/internal/errors"
	"github.com/kyleking/asksql/internal/schema"
)

// Client implements the Service interface against the HTTP APIs of the
// supported providers.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a generation client with the given configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configure updates the client configuration, filling in provider defaults.
func (c *Client) Configure(cfg Config) error {
	if cfg.Provider == "" {
		return errors.NewConfigError("provider is required", "generate.provider")
	}

	if cfg.Model == "" {
		return errors.NewConfigError("model is required", "generate.model")
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return errors.NewConfigError("API key is required for OpenAI provider", "generate.api_key")
		}

		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com/v1"
		}
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return errors.NewConfigError("API key is required for Anthropic provider", "generate.api_key")
		}

		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.anthropic.com/v1"
		}
	case ProviderOllama, ProviderLocal:
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434"
		}
	default:
		return errors.NewConfigError(
			fmt.Sprintf("unsupported provider: %s", cfg.Provider), "generate.provider")
	}

	c.config = cfg

	return nil
}

// GenerateSQL asks the configured provider to translate the question into
// SQL for the given schema.
func (c *Client) GenerateSQL(
	ctx context.Context,
	question string,
	model *schema.Model,
) (*Result, error) {
	if c.config.Provider == "" {
		return nil, errors.New(errors.ErrTypeGeneration, "generation client not configured")
	}

	prompt := buildPrompt(question, model)

	var (
		result *Result
		err    error
	)

	switch c.config.Provider {
	case ProviderOpenAI:
		result, err = c.generateOpenAI(ctx, prompt)
	case ProviderAnthropic:
		result, err = c.generateAnthropic(ctx, prompt)
	case ProviderOllama, ProviderLocal:
		result, err = c.generateOllama(ctx, prompt)
	default:
		return nil, errors.Newf(errors.ErrTypeGeneration,
			"unsupported provider: %s", c.config.Provider)
	}

	if err != nil {
		return nil, err
	}

	result.SQL = StripFences(result.SQL)
	result.Provider = c.config.Provider

	if result.SQL == "" {
		return nil, errors.New(errors.ErrTypeGeneration, "provider returned empty SQL")
	}

	return result, nil
}

// buildPrompt creates the generation prompt from the question and the
// schema description.
func buildPrompt(question string, model *schema.Model) string {
	systemPrompt := `You are an expert at converting natural language questions into SQL queries.
Convert the user's question into a single SQL SELECT statement against the provided schema.

Respond with a JSON object containing the following fields:
- sql: The generated SQL query
- explanation: A clear explanation of what the query does
- confidence: A float between 0.0 and 1.0 indicating your confidence in the query
- reasoning: Your reasoning process for generating this query

Guidelines:
1. Generate exactly one SELECT statement, never data-modifying SQL
2. Only reference tables and columns that exist in the schema
3. Use appropriate WHERE clauses, JOINs, and ORDER BY as needed
4. Add a LIMIT clause when the result set could be large

Database Schema:
%s

Question: %s`

	return fmt.Sprintf(systemPrompt, model.Describe(), question)
}

// StripFences removes markdown code fences around a SQL fragment. Providers
// sometimes wrap responses in fenced blocks even when asked for raw JSON.
func StripFences(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)

	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language hint line ("sql", "SQL", ...).
		first := strings.TrimSpace(trimmed[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, " \t") {
			trimmed = trimmed[idx+1:]
		}
	}

	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

// OpenAI API structures
type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Error   *openAIError   `json:"error,omitempty"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (c *Client) generateOpenAI(ctx context.Context, prompt string) (*Result, error) {
	reqBody := openAIRequest{
		Model: c.config.Model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		Temperature:    0.1,
		MaxTokens:      1000,
		ResponseFormat: &openAIResponseFormat{Type: "json_object"},
	}

	respBody, err := c.makeRequest(ctx, "/chat/completions", reqBody, map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var response openAIResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGeneration, "failed to parse OpenAI response")
	}

	if response.Error != nil {
		return nil, errors.Newf(errors.ErrTypeGeneration,
			"OpenAI API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return nil, errors.New(errors.ErrTypeGeneration, "no response from OpenAI")
	}

	return parseResultJSON(response.Choices[0].Message.Content)
}

// Anthropic API structures
type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c *Client) generateAnthropic(ctx context.Context, prompt string) (*Result, error) {
	reqBody := anthropicRequest{
		Model:     c.config.Model,
		MaxTokens: 1000,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	respBody, err := c.makeRequest(ctx, "/messages", reqBody, map[string]string{
		"x-api-key":         c.config.APIKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return nil, err
	}

	var response anthropicResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGeneration, "failed to parse Anthropic response")
	}

	if response.Error != nil {
		return nil, errors.Newf(errors.ErrTypeGeneration,
			"Anthropic API error: %s", response.Error.Message)
	}

	if len(response.Content) == 0 {
		return nil, errors.New(errors.ErrTypeGeneration, "no response from Anthropic")
	}

	return parseResultJSON(response.Content[0].Text)
}

// Ollama API structures
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (c *Client) generateOllama(ctx context.Context, prompt string) (*Result, error) {
	reqBody := ollamaRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	}

	respBody, err := c.makeRequest(ctx, "/api/generate", reqBody, nil)
	if err != nil {
		return nil, err
	}

	var response ollamaResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGeneration, "failed to parse Ollama response")
	}

	if response.Error != "" {
		return nil, errors.Newf(errors.ErrTypeGeneration,
			"Ollama API error: %s", response.Error)
	}

	return parseResultJSON(response.Response)
}

// parseResultJSON decodes the provider's JSON payload into a Result.
func parseResultJSON(payload string) (*Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(StripFences(payload)), &result); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGeneration, "failed to parse result JSON")
	}

	return &result, nil
}

// makeRequest performs a JSON POST against the provider API.
func (c *Client) makeRequest(
	ctx context.Context,
	endpoint string,
	reqBody interface{},
	headers map[string]string,
) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGeneration, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGeneration, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeNetwork, "failed to reach provider")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeNetwork, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrTypeGeneration,
			"API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
