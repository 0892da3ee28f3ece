package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"veshop-backend/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DeepSeek exposes an OpenAI-compatible API.
const (
	deepSeekBaseURL = "https://api.deepseek.com"
	deepSeekModel   = "deepseek-chat"
)

// Service translates product copy from Vietnamese to English for the
// international storefront. With no API key configured it falls back to
// the original text.
type Service struct {
	client *openai.Client
}

func NewService(apiKey string) *Service {
	if apiKey == "" {
		return &Service{}
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepSeekBaseURL
	return &Service{client: openai.NewClientWithConfig(config)}
}

func (s *Service) Enabled() bool {
	return s.client != nil
}

// TranslateProduct translates a product name and description from
// Vietnamese to English. On any failure the Vietnamese text is returned
// unchanged so product writes never block on the API.
func (s *Service) TranslateProduct(ctx context.Context, name, description string) (nameEn, descEn string) {
	if s.client == nil {
		return name, description
	}

	systemPrompt := `You are a professional translator specializing in retail and consumer goods.
Output ONLY valid JSON without any markdown formatting or code blocks.
Translate accurately while preserving the original meaning and tone.`

	userPrompt := fmt.Sprintf(`Translate this product Name and Description from Vietnamese to English.
Return ONLY a JSON object in this EXACT format (no markdown, no code blocks):
{
  "name": "...",
  "description": "..."
}

Product Name (Vietnamese): %s
Product Description (Vietnamese): %s`, name, description)

	responseText, err := s.generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		logger.Warn("TranslateProduct failed", zap.Error(err))
		return name, description
	}

	var result struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	responseText = cleanJSONResponse(responseText)
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		logger.Warn("Failed to parse translation response",
			zap.Error(err),
			zap.String("response", responseText),
		)
		return name, description
	}

	if result.Name == "" {
		result.Name = name
	}
	if result.Description == "" {
		result.Description = description
	}

	logger.Info("✅ Product translated",
		zap.String("name", name),
		zap.String("name_en", result.Name),
	)
	return result.Name, result.Description
}

func (s *Service) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: deepSeekModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userPrompt,
				},
			},
			Temperature: 0.3,
			MaxTokens:   1000,
		},
	)
	if err != nil {
		return "", fmt.Errorf("DeepSeek API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from DeepSeek")
	}

	logger.Debug("DeepSeek response received",
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// cleanJSONResponse strips markdown code fences the model sometimes adds.
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
