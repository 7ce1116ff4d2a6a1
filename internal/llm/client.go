// Package llm generates maintenance checklists from operator manuals and
// current weather via an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/zerbini/agrofrota/internal/clima"
	"github.com/zerbini/agrofrota/internal/config"
)

// systemPrompt pins the assistant to the manual-grounded maintenance role
// and to a machine-parseable response format.
const systemPrompt = `Você é um assistente especializado em manutenção de máquinas agrícolas.
Baseando-se exclusivamente no manual do operador indicado e nas condições climáticas atuais,
gere uma lista de tarefas de manutenção preventiva que devem ser realizadas hoje.

Instruções:
- Cada tarefa deve citar diretamente o impacto das condições climáticas na máquina.
- Seja breve: uma frase clara e objetiva por tarefa.
- Retorne exatamente 5 tarefas.
- Responda APENAS com um array JSON de 5 strings, sem texto adicional:
  ["tarefa 1", "tarefa 2", "tarefa 3", "tarefa 4", "tarefa 5"]`

// Client asks the configured model for maintenance task lists.
type Client struct {
	api         openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// New creates a Client pointed at the configured OpenAI-compatible endpoint.
func New(cfg config.LLMConfig, apiKey string) *Client {
	return &Client{
		api: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(cfg.BaseURL),
		),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// MaintenanceTasks requests today's checklist for one manual under the given
// weather. The response must parse as a strict JSON string array; any
// deviation is an error for the caller to substitute.
func (c *Client) MaintenanceTasks(ctx context.Context, manual string, w clima.Weather) ([]string, error) {
	prompt := fmt.Sprintf(
		"Manual do operador: %s\nCondições climáticas: %s com temperatura de %.1f°C\n\nLista de tarefas:",
		manual, w.Description, w.Temperature,
	)

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return nil, fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm: empty completion response")
	}

	tasks, err := ParseTaskList(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	return tasks, nil
}
