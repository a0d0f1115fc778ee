package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// chatAPI is the subset of the OpenAI client the fallback client uses.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// chatParams describes one logical chat call, independent of any
// particular model's request shape.
type chatParams struct {
	Messages    []openai.ChatCompletionMessage
	Temperature float32
	MaxTokens   int
	// JSONObject requests the JSON-object response format for model
	// families that accept it.
	JSONObject bool
}

// chatFallback makes one logical chat call succeed despite per-model
// parameter incompatibilities. It tries an ordered list of candidate
// models; within each candidate it retries with adjusted parameters
// when the API rejects one. Retries are strictly sequential.
type chatFallback struct {
	api        chatAPI
	candidates []string

	mu     sync.Mutex
	active string
}

func newChatFallback(api chatAPI, candidates []string) *chatFallback {
	return &chatFallback{api: api, candidates: candidates}
}

// Active returns the model that served the last successful call, or the
// primary candidate before any call has succeeded.
func (f *chatFallback) Active() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active != "" {
		return f.active
	}
	if len(f.candidates) > 0 {
		return f.candidates[0]
	}
	return ""
}

func (f *chatFallback) setActive(model string) {
	f.mu.Lock()
	f.active = model
	f.mu.Unlock()
}

// Complete runs the call against each candidate in order and returns
// the first successful response content along with the model that
// produced it. When all candidates fail, the last error is returned
// wrapped in RemoteCallError.
func (f *chatFallback) Complete(ctx context.Context, p chatParams) (string, string, error) {
	var lastErr error
	for _, candidate := range f.candidates {
		resp, err := f.completeModel(ctx, candidate, p)
		if err != nil {
			if ctx.Err() != nil {
				return "", "", err
			}
			lastErr = err
			slog.Warn("model candidate failed, trying next", "model", candidate, "error", err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("model %q returned no choices", candidate)
			slog.Warn("model candidate failed, trying next", "model", candidate, "error", lastErr)
			continue
		}
		f.setActive(candidate)
		return resp.Choices[0].Message.Content, candidate, nil
	}
	return "", "", &RemoteCallError{Provider: "gpt", Err: lastErr}
}

// completeModel issues the call for one candidate, recovering locally
// from parameter-incompatibility errors:
//
//  1. full parameter set (temperature, max_tokens, response format)
//  2. max_tokens rejected: switch to max_completion_tokens
//  3. temperature then rejected: drop temperature
//
// Any other error propagates to the candidate loop.
func (f *chatFallback) completeModel(ctx context.Context, model string, p chatParams) (openai.ChatCompletionResponse, error) {
	resp, err := f.api.CreateChatCompletion(ctx, f.buildRequest(model, p, false, false))
	if err == nil {
		return resp, nil
	}

	switch classifyParamError(err) {
	case paramMaxTokens:
		slog.Warn("model rejected max_tokens, retrying with max_completion_tokens", "model", model)
		resp, err = f.api.CreateChatCompletion(ctx, f.buildRequest(model, p, true, false))
		if err != nil && classifyParamError(err) == paramTemperature {
			slog.Warn("model rejected temperature, retrying without temperature", "model", model)
			return f.api.CreateChatCompletion(ctx, f.buildRequest(model, p, true, true))
		}
		return resp, err
	case paramTemperature:
		slog.Warn("model rejected temperature, retrying without temperature", "model", model)
		return f.api.CreateChatCompletion(ctx, f.buildRequest(model, p, false, true))
	}
	return resp, err
}

func (f *chatFallback) buildRequest(model string, p chatParams, altTokenParam, dropTemperature bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: p.Messages,
	}
	if altTokenParam {
		req.MaxCompletionTokens = p.MaxTokens
	} else {
		req.MaxTokens = p.MaxTokens
	}
	if !dropTemperature {
		req.Temperature = p.Temperature
	}
	if p.JSONObject && !rejectsResponseFormat(model) {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

// rejectsResponseFormat reports whether the model family is known to
// reject the JSON response-format hint.
func rejectsResponseFormat(model string) bool {
	return strings.Contains(model, "gpt-5")
}

type paramIssue int

const (
	paramNone paramIssue = iota
	paramMaxTokens
	paramTemperature
)

// classifyParamError maps an API error to the parameter it rejected,
// preferring the structured param field over message matching.
func classifyParamError(err error) paramIssue {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return paramNone
	}
	if apiErr.Param != nil {
		switch *apiErr.Param {
		case "max_tokens":
			return paramMaxTokens
		case "temperature":
			return paramTemperature
		}
	}
	if strings.Contains(apiErr.Message, "Unsupported parameter: 'max_tokens'") {
		return paramMaxTokens
	}
	if strings.Contains(apiErr.Message, "Unsupported value: 'temperature'") {
		return paramTemperature
	}
	return paramNone
}
