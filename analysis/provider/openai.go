package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const DefaultModel = "gpt-4o-mini"

// OpenAIOptions configures the OpenAI completer.
type OpenAIOptions struct {
	APIKey string
	Model  string

	// RequestTimeout bounds a single HTTP request. Zero leaves the SDK default.
	RequestTimeout time.Duration

	// Extra is appended to the client options (base URL overrides, test transports).
	Extra []option.RequestOption
}

// OpenAI completes requests with the OpenAI Responses API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a completer. SDK-level retries are disabled: attempts are counted and
// spaced by CompleteWithRetry.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("NewOpenAI: api key is empty")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.RequestTimeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.RequestTimeout))
	}
	reqOpts = append(reqOpts, opts.Extra...)

	client := openai.NewClient(reqOpts...)
	return &OpenAI{client: &client, model: model}, nil
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if o == nil || o.client == nil {
		return "", ErrNoClient
	}
	if req.Samples > 1 {
		return "", fmt.Errorf("OpenAI.Complete: %d samples requested, only 1 is supported", req.Samples)
	}
	if len(req.Stop) > 0 {
		return "", errors.New("OpenAI.Complete: stop sequences are not supported by the responses api")
	}

	params := responses.ResponseNewParams{
		Model:        o.model,
		Instructions: openai.String(req.System),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.User, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if req.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(req.MaxOutputTokens)
	}
	params.Temperature = openai.Float(req.Temperature)
	if req.Schema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        req.Schema.Name,
					Schema:      req.Schema.Definition,
					Strict:      openai.Bool(true),
					Description: openai.String(req.Schema.Description),
					Type:        "json_schema",
				},
			},
		}
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return "", err
	}
	return resp.OutputText(), nil
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 500 {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "server_error")
}
