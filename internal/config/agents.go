package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentSpec describes one model-backed role
type AgentSpec struct {
	Name         string `yaml:"name"`
	Instructions string `yaml:"instructions"`
	// Refusal is the fixed text shown when a guard rejects; unused by the responder
	Refusal string `yaml:"refusal,omitempty"`
}

// AgentsConfig holds the prompts and fixed chat messages
type AgentsConfig struct {
	Greeting    string    `yaml:"greeting"`
	Help        string    `yaml:"help"`
	InputGuard  AgentSpec `yaml:"input_guard"`
	Responder   AgentSpec `yaml:"responder"`
	OutputGuard AgentSpec `yaml:"output_guard"`
}

// DefaultAgents returns the built-in Python expert configuration
func DefaultAgents() *AgentsConfig {
	return &AgentsConfig{
		Greeting: "👋 Hello! I'm ready to assist you with Python programming.",
		Help: "🐍 Ask me anything about Python programming.\n\n" +
			"/start - show the greeting\n" +
			"/help - show this help",
		InputGuard: AgentSpec{
			Name: "Input Guardrails Checker",
			Instructions: "Check if the user's question is related to Python programming. " +
				"If it is, return true; if not, return false.",
			Refusal: "⚠️ Please ask questions related to Python programming only.",
		},
		Responder: AgentSpec{
			Name:         "Python_Expert_Agent",
			Instructions: "You are a Python expert agent. You only respond to Python-related questions.",
		},
		OutputGuard: AgentSpec{
			Name:         "Output Guardrails Checker",
			Instructions: "Check whether the output includes Python-related content.",
			Refusal:      "⛔ Output was rejected by the guardrail. Try rephrasing your Python query.",
		},
	}
}

// LoadAgents reads the agents file. A missing file falls back to DefaultAgents,
// fields left empty in the file keep their defaults.
func LoadAgents(path string) (*AgentsConfig, error) {
	agents := DefaultAgents()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Warning: agents file not found at %s, using default agents\n", path)
		return agents, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("agents file is empty: %s", path)
	}

	var fromFile AgentsConfig
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parse agents YAML: %w", err)
	}

	merge(agents, &fromFile)

	if err := agents.validate(); err != nil {
		return nil, fmt.Errorf("invalid agents file %s: %w", path, err)
	}

	return agents, nil
}

func merge(dst, src *AgentsConfig) {
	setIfNotEmpty(&dst.Greeting, src.Greeting)
	setIfNotEmpty(&dst.Help, src.Help)
	mergeSpec(&dst.InputGuard, &src.InputGuard)
	mergeSpec(&dst.Responder, &src.Responder)
	mergeSpec(&dst.OutputGuard, &src.OutputGuard)
}

func mergeSpec(dst, src *AgentSpec) {
	setIfNotEmpty(&dst.Name, src.Name)
	setIfNotEmpty(&dst.Instructions, src.Instructions)
	setIfNotEmpty(&dst.Refusal, src.Refusal)
}

func setIfNotEmpty(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

// The two guards need distinct refusals so callers can tell them apart
func (a *AgentsConfig) validate() error {
	if a.InputGuard.Refusal == a.OutputGuard.Refusal {
		return errors.New("input_guard and output_guard refusals must differ")
	}
	return nil
}
