// Package brain talks to the interview AI service for question generation
// and answer scoring.
package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/greenroom-dev/greenroom/internal/config"
)

var (
	// ErrTimeout indicates the service did not answer within the deadline.
	ErrTimeout = errors.New("interview service timed out")
	// ErrNetworkFailure indicates the service could not be reached.
	ErrNetworkFailure = errors.New("interview service unreachable")
	// ErrMalformedResponse indicates the service answered with a payload
	// that fails schema validation. The payload is never partially used.
	ErrMalformedResponse = errors.New("interview service returned a malformed response")
)

// Evaluation is a validated scoring verdict for one answered question.
type Evaluation struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Client issues generation and scoring requests against one configured
// service endpoint.
type Client struct {
	http          *resty.Client
	logger        *slog.Logger
	model         string
	questionCount int

	questionsSchema *jsonschema.Schema
	scoreSchema     *jsonschema.Schema
}

// NewClient builds a client from config. The credential resolves at call
// time so key rotation does not require a restart.
func NewClient(logger *slog.Logger, cfg config.BrainConfig) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("brain.endpoint is empty")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("parse brain.endpoint: %w", err)
	}

	count := cfg.QuestionCount
	if count <= 0 {
		count = 4
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	questionsSchema, err := compileSchema("questions.schema.json", questionsSchemaJSON(count))
	if err != nil {
		return nil, err
	}
	scoreSchema, err := compileSchema("score.schema.json", scoreSchemaJSON)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetAuthScheme("Bearer").
		SetAuthToken(cfg.APIKey())

	return &Client{
		http:            httpClient,
		logger:          logger,
		model:           cfg.Model,
		questionCount:   count,
		questionsSchema: questionsSchema,
		scoreSchema:     scoreSchema,
	}, nil
}

// QuestionCount reports how many questions one generation call yields.
func (c *Client) QuestionCount() int {
	return c.questionCount
}

// GenerateQuestions requests the full question set for one session. The
// response must be exactly questionCount non-empty strings or the call
// fails as malformed and nothing is used.
func (c *Client) GenerateQuestions(ctx context.Context, role, mode string) ([]string, error) {
	request := map[string]string{
		"role": strings.TrimSpace(role),
		"mode": strings.ToLower(strings.TrimSpace(mode)),
	}
	if c.model != "" {
		request["model"] = c.model
	}

	body, err := c.post(ctx, "/questions", request)
	if err != nil {
		return nil, err
	}

	payload, err := validate(c.questionsSchema, body)
	if err != nil {
		c.warn("question generation response rejected", err)
		return nil, err
	}

	raw := payload.([]any)
	questions := make([]string, 0, len(raw))
	for _, item := range raw {
		question := strings.TrimSpace(item.(string))
		if question == "" {
			err := fmt.Errorf("%w: blank question in response", ErrMalformedResponse)
			c.warn("question generation response rejected", err)
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// ScoreAnswer requests an evaluation of one question/answer pair.
func (c *Client) ScoreAnswer(ctx context.Context, question, answer string) (Evaluation, error) {
	request := map[string]string{
		"question": question,
		"answer":   answer,
	}
	if c.model != "" {
		request["model"] = c.model
	}

	body, err := c.post(ctx, "/score", request)
	if err != nil {
		return Evaluation{}, err
	}

	if _, err := validate(c.scoreSchema, body); err != nil {
		c.warn("scoring response rejected", err)
		return Evaluation{}, err
	}

	var evaluation Evaluation
	if err := json.Unmarshal(body, &evaluation); err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	evaluation.Feedback = strings.TrimSpace(evaluation.Feedback)
	return evaluation, nil
}

func (c *Client) post(ctx context.Context, path string, request any) ([]byte, error) {
	response, err := c.http.R().
		SetContext(ctx).
		SetBody(request).
		Post(path)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrNetworkFailure, response.StatusCode())
	}
	return response.Body(), nil
}

func (c *Client) warn(message string, err error) {
	if c.logger != nil {
		c.logger.Warn(message, "error", err.Error())
	}
}

// classifyTransport maps request errors onto the session-facing sentinels.
func classifyTransport(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

// validate parses body and checks it against schema, returning the decoded
// document on success.
func validate(schema *jsonschema.Schema, body []byte) (any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := schema.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return payload, nil
}

func compileSchema(name, raw string) (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add %s resource: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return schema, nil
}

// questionsSchemaJSON admits exactly count non-empty strings.
func questionsSchemaJSON(count int) string {
	return fmt.Sprintf(`{
		"type": "array",
		"minItems": %d,
		"maxItems": %d,
		"items": {"type": "string", "minLength": 1}
	}`, count, count)
}

const scoreSchemaJSON = `{
	"type": "object",
	"required": ["score", "feedback"],
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 10},
		"feedback": {"type": "string", "minLength": 1}
	}
}`
