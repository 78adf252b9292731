package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/metrics"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

// Client proxies document synthesis to the OpenAI Responses API.
type Client struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	log    zerolog.Logger
}

func NewClient(url, apiKey, model string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("component", "generate").Logger(),
	}
}

func (c *Client) Model() string { return c.model }

type apiRequest struct {
	Model        string       `json:"model"`
	Reasoning    apiReasoning `json:"reasoning"`
	Instructions string       `json:"instructions"`
	Input        string       `json:"input"`
}

type apiReasoning struct {
	Effort string `json:"effort"`
}

// Generate resolves the request's template, dispatches one synthesis
// call, and returns the extracted document text. Validation failures
// surface as invalid_input; everything downstream of a valid request
// maps to generation_service_error, including a 200 whose shape yields
// no text. A successful Generate never returns an empty document.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	instructions, err := Resolve(req)
	if err != nil {
		return "", err
	}

	start := time.Now()
	text, err := c.dispatch(ctx, instructions, req.Transcript)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.GenerationsTotal.WithLabelValues("success").Inc()
	c.log.Info().
		Str("model", c.model).
		Int("output_chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("Toolkit generated")
	return text, nil
}

func (c *Client) dispatch(ctx context.Context, instructions, input string) (string, error) {
	body, err := json.Marshal(apiRequest{
		Model:        c.model,
		Reasoning:    apiReasoning{Effort: "medium"},
		Instructions: instructions,
		Input:        input,
	})
	if err != nil {
		return "", pipeline.Wrap(pipeline.CodeGenerationService, "encode generation request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", pipeline.Wrap(pipeline.CodeGenerationService, "build generation request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", pipeline.Wrap(pipeline.CodeGenerationService, "generation service unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", pipeline.Wrap(pipeline.CodeGenerationService, "read generation response", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", pipeline.Errorf(pipeline.CodeGenerationService, "generation failed (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", pipeline.Errorf(pipeline.CodeGenerationService, "%s", parsed.Error.Message)
		}
		return "", pipeline.Errorf(pipeline.CodeGenerationService, "generation failed (status %d)", resp.StatusCode)
	}

	text := extractText(&parsed)
	if text == "" {
		return "", pipeline.Errorf(pipeline.CodeGenerationService,
			"generation service returned no usable output")
	}
	return text, nil
}
