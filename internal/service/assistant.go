package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/vector"
)

// AssistantService answers natural-language questions about the workspace
// by retrieving relevant entries and feeding them to a chat model.
type AssistantService struct {
	client    *resty.Client
	retrieval *RetrievalService
	model     string
	endpoint  string
	maxTokens int
	logger    *logger.Logger
}

// AssistantConfig holds configuration for the assistant service.
type AssistantConfig struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// NewAssistantService creates a new assistant service.
func NewAssistantService(cfg *AssistantConfig, retrieval *RetrievalService, log *logger.Logger) *AssistantService {
	client := resty.New()
	client.SetHeader("x-api-key", cfg.APIKey)
	client.SetHeader("anthropic-version", "2023-06-01")
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(120 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &AssistantService{
		client:    client,
		retrieval: retrieval,
		model:     cfg.Model,
		endpoint:  baseURL + "/messages",
		maxTokens: maxTokens,
		logger:    log,
	}
}

// Answer is the assistant's reply plus the entries it was grounded on.
type Answer struct {
	Text    string                `json:"text"`
	Sources []vector.SearchResult `json:"sources"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const assistantSystemPrompt = "You are an assistant for a project-management workspace. " +
	"Answer using only the provided context of tasks, projects, and comments. " +
	"If the context does not contain the answer, say so."

// Ask retrieves context for the question and asks the chat model.
func (s *AssistantService) Ask(ctx context.Context, question string, topK int) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	sources, err := s.retrieval.Search(ctx, question, "", topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	req := &chatRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System:    assistantSystemPrompt,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(question, sources)},
		},
	}

	var out chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("chat API error: %s", msg)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	s.logger.WithField(logger.FieldCount, len(sources)).Debug("Assistant answered question")

	return &Answer{Text: text.String(), Sources: sources}, nil
}

// buildPrompt renders retrieved entries into a numbered context block.
func buildPrompt(question string, sources []vector.SearchResult) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	if len(sources) == 0 {
		b.WriteString("(no relevant entries found)\n")
	}
	for i, src := range sources {
		entityType, _ := src.Metadata["type"].(string)
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, entityType, src.Text)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
