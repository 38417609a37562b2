package entity

import "encoding/json"

// Chat completion wire format of the OpenAI-compatible endpoint

type LLMMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type LLMJSONSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type LLMResponseFormat struct {
	Type       string         `json:"type"`
	JSONSchema *LLMJSONSchema `json:"json_schema,omitempty"`
}

type LLMChatCompletionRequest struct {
	Model          string             `json:"model"`
	Messages       []LLMMessage       `json:"messages"`
	Temperature    *float64           `json:"temperature,omitempty"`
	ResponseFormat *LLMResponseFormat `json:"response_format,omitempty"`
}

type LLMChoice struct {
	Index        int        `json:"index"`
	Message      LLMMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type LLMChatCompletionResponse struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []LLMChoice `json:"choices"`
}

// VerdictSchemaName names the structured output of the guard agents
const VerdictSchemaName = "validation_verdict"

// VerdictSchema is the JSON schema every guard agent must answer with
var VerdictSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "is_related": {"type": "boolean"},
    "rationale": {"type": "string"}
  },
  "required": ["is_related", "rationale"],
  "additionalProperties": false
}`)
