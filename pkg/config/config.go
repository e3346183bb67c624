// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates the Inkwell configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AgentRef names the provider and model one agent should use. Empty
// fields inherit from the agents defaults.
type AgentRef struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// AgentsConfig assigns a provider and model per agent role.
type AgentsConfig struct {
	Defaults   AgentRef `yaml:"defaults"`
	Planner    AgentRef `yaml:"planner"`
	Discovery  AgentRef `yaml:"discovery"`
	Researcher AgentRef `yaml:"researcher"`
	Writer     AgentRef `yaml:"writer"`
	Assembler  AgentRef `yaml:"assembler"`
	Verifier   AgentRef `yaml:"verifier"`
	Auditor    AgentRef `yaml:"auditor"`
	Refiner    AgentRef `yaml:"refiner"`
}

// merge fills an agent's blanks from the defaults.
func (a *AgentsConfig) merge(ref AgentRef) AgentRef {
	if ref.Provider == "" {
		ref.Provider = a.Defaults.Provider
	}
	if ref.Model == "" {
		ref.Model = a.Defaults.Model
	}
	return ref
}

// For returns the effective selection for a named agent role.
func (a *AgentsConfig) For(role string) AgentRef {
	switch role {
	case "planner":
		return a.merge(a.Planner)
	case "discovery":
		return a.merge(a.Discovery)
	case "researcher":
		return a.merge(a.Researcher)
	case "writer":
		return a.merge(a.Writer)
	case "assembler":
		return a.merge(a.Assembler)
	case "verifier":
		return a.merge(a.Verifier)
	case "auditor":
		return a.merge(a.Auditor)
	case "refiner":
		return a.merge(a.Refiner)
	default:
		return a.Defaults
	}
}

// OllamaProviderConfig configures the local Ollama backend.
type OllamaProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// OpenAIProviderConfig configures the OpenAI backend. The API key is
// never stored in the file; it comes from the environment or secrets.
type OpenAIProviderConfig struct {
	Model string `yaml:"model"`
}

// ProvidersConfig holds generation backend settings.
type ProvidersConfig struct {
	Ollama OllamaProviderConfig `yaml:"ollama"`
	OpenAI OpenAIProviderConfig `yaml:"openai"`
}

// PipelineConfig tunes the run executor.
type PipelineConfig struct {
	MaxRevisions      int     `yaml:"max_revisions" validate:"gte=0,lte=10"`
	StepBudget        int     `yaml:"step_budget" validate:"gte=0,lte=500"`
	Workers           int     `yaml:"workers" validate:"gte=0,lte=32"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
}

// StorageConfig locates article output and the run journal.
type StorageConfig struct {
	ArticlesDir string `yaml:"articles_dir" validate:"required"`
	JournalDir  string `yaml:"journal_dir"`
}

// WeaviateConfig locates the research store. An empty host disables
// research retrieval.
type WeaviateConfig struct {
	Host   string `yaml:"host"`
	Scheme string `yaml:"scheme" validate:"omitempty,oneof=http https"`
}

// GatewayConfig configures the HTTP job API.
type GatewayConfig struct {
	Addr         string `yaml:"addr"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Config is the root configuration.
type Config struct {
	DefaultProvider string          `yaml:"default_provider" validate:"required,oneof=ollama openai"`
	Providers       ProvidersConfig `yaml:"providers"`
	Agents          AgentsConfig    `yaml:"agents"`
	Pipeline        PipelineConfig  `yaml:"pipeline"`
	Storage         StorageConfig   `yaml:"storage"`
	Weaviate        WeaviateConfig  `yaml:"weaviate"`
	Gateway         GatewayConfig   `yaml:"gateway"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DefaultProvider: "ollama",
		Providers: ProvidersConfig{
			Ollama: OllamaProviderConfig{BaseURL: "http://localhost:11434", Model: "llama3.1"},
			OpenAI: OpenAIProviderConfig{Model: "gpt-4o-mini"},
		},
		Pipeline: PipelineConfig{
			MaxRevisions:      3,
			StepBudget:        50,
			Workers:           4,
			RequestsPerSecond: 2,
		},
		Storage: StorageConfig{
			ArticlesDir: "articles",
			JournalDir:  "data/runs",
		},
		Weaviate: WeaviateConfig{Scheme: "http"},
		Gateway:  GatewayConfig{Addr: ":8080"},
	}
}

// Load reads a config file over the defaults and validates the result.
// A missing path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, nil
			}
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
