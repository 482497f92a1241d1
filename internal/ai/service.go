// Package ai generates word metadata (translation, phonetics, examples)
// with whichever provider has a usable API key in the config store.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/zzzaaa12/ai-vocabulary-review/internal/config"
)

var (
	ErrNoProvider      = errors.New("no AI provider available")
	ErrUnknownProvider = errors.New("unknown provider")
)

// ModelFactory builds a chat model for a provider. Tests swap it out.
type ModelFactory func(ctx context.Context, provider, apiKey, modelName string) (model.BaseChatModel, error)

type Service struct {
	store      *config.Store
	buildModel ModelFactory
}

func NewService(store *config.Store) *Service {
	return &Service{store: store, buildModel: buildChatModel}
}

// WithModelFactory overrides how chat models are constructed.
func (s *Service) WithModelFactory(factory ModelFactory) {
	if factory != nil {
		s.buildModel = factory
	}
}

func buildChatModel(ctx context.Context, provider, apiKey, modelName string) (model.BaseChatModel, error) {
	switch provider {
	case config.ProviderOpenAI:
		m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey: apiKey,
			Model:  modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("init openai model: %w", err)
		}
		return m, nil

	case config.ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		m, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini model: %w", err)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

// resolveProvider picks the provider to use: the requested one if its key
// is usable, otherwise the configured default, otherwise the first provider
// with a usable key.
func (s *Service) resolveProvider(requested string) (string, error) {
	available := s.store.AvailableProviders()
	if len(available) == 0 {
		return "", ErrNoProvider
	}

	if requested == "" {
		requested = s.store.DefaultProvider()
	}
	for _, name := range available {
		if name == requested {
			return name, nil
		}
	}

	return available[0], nil
}

// GenerateWordInfo asks the selected provider for word metadata, retrying
// per the configured max_retries with the configured timeout per attempt.
func (s *Service) GenerateWordInfo(ctx context.Context, word, provider string) (WordInfo, error) {
	word, err := ValidateWord(word)
	if err != nil {
		return WordInfo{}, err
	}

	provider, err = s.resolveProvider(provider)
	if err != nil {
		return WordInfo{}, err
	}

	apiKey := s.store.APIKey(provider)
	modelName := s.store.Model(provider)
	timeout := time.Duration(s.store.Timeout()) * time.Second
	attempts := s.store.MaxRetries() + 1

	chatModel, err := s.buildModel(ctx, provider, apiKey, modelName)
	if err != nil {
		return WordInfo{}, err
	}

	messages := []*schema.Message{
		schema.SystemMessage("You are an English vocabulary assistant. Always answer with a single JSON object."),
		schema.UserMessage(wordPrompt(word)),
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		reply, err := generateOnce(ctx, chatModel, messages, timeout)
		if err != nil {
			lastErr = err
			continue
		}

		info, err := parseWordInfo(reply, word, provider)
		if err != nil {
			lastErr = err
			continue
		}
		return info, nil
	}

	return WordInfo{}, fmt.Errorf("generate word info with %s: %w", provider, lastErr)
}

func generateOnce(ctx context.Context, chatModel model.BaseChatModel, messages []*schema.Message, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}

	return reply.Content, nil
}

// Status summarizes provider readiness for the settings UI.
type Status struct {
	Enabled            bool     `json:"ai_enabled"`
	DefaultProvider    string   `json:"default_provider"`
	AvailableProviders []string `json:"available_providers"`
}

func (s *Service) Status() Status {
	available := s.store.AvailableProviders()
	return Status{
		Enabled:            len(available) > 0,
		DefaultProvider:    s.store.DefaultProvider(),
		AvailableProviders: available,
	}
}
