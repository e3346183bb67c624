// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const openaiSecretPath = "/run/secrets/openai_api_key"

// OpenAIClient generates text through the OpenAI chat completion API.
type OpenAIClient struct {
	client       *openai.Client
	defaultModel string
	systemPrompt string
}

// OpenAIConfig configures an OpenAIClient. Empty fields fall back to
// environment variables and then to built-in defaults.
type OpenAIConfig struct {
	APIKey       string
	DefaultModel string
	SystemPrompt string
}

// NewOpenAIClient creates an OpenAI-backed generation client.
//
// The API key is taken from the config, then OPENAI_API_KEY, then the
// container secret file.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		apiKeyBytes, err := os.ReadFile(openaiSecretPath)
		if err != nil {
			slog.Error("OpenAI API key not configured and secret not found",
				"path", openaiSecretPath)
			return nil, fmt.Errorf("OpenAI API key not configured")
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
		slog.Info("Read the OpenAI API key from container secrets")
	}

	model := cfg.DefaultModel
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OpenAI model not configured, defaulting to gpt-4o-mini")
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = "You are a meticulous long-form content writer."
	}

	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{
		client:       openai.NewClient(apiKey),
		defaultModel: model,
		systemPrompt: systemPrompt,
	}, nil
}

// Generate implements the Client interface.
func (o *OpenAIClient) Generate(ctx context.Context, model, prompt string, params GenerationParams) (string, error) {
	if model == "" {
		model = o.defaultModel
	}
	slog.Debug("Generating text via OpenAI", "model", model)

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	slog.Debug("Received response from OpenAI",
		"finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
