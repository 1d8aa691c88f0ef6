// Package app builds the components shared by the commands from a loaded
// config.
package app

import (
	"fmt"
	"log/slog"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/completion"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/config"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/conversation"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/documents"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/form"
)

func CompletionClient(cfg config.Config) *completion.Client {
	return completion.NewClient(completion.Config{
		BaseURL:           cfg.LLMBaseURL,
		Model:             cfg.LLMModel,
		Timeout:           cfg.LLMTimeout,
		RequestsPerSecond: cfg.LLMRateLimit,
		Burst:             cfg.LLMBurst,
	})
}

// OpenDocuments opens the SQLite document store. The caller closes the
// returned store.
func OpenDocuments(cfg config.Config, logger *slog.Logger) (*documents.Service, *documents.SQLiteStore, error) {
	store, err := documents.OpenSQLite(cfg.DocumentsDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open document store: %w", err)
	}
	chunker := documents.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	return documents.NewService(store, chunker, cfg.SearchTopK, logger), store, nil
}

func FormOptions(cfg config.Config) []form.Option {
	opts := []form.Option{form.WithPhoneRegion(cfg.PhoneRegion)}
	if cfg.CheckDeliverability {
		opts = append(opts, form.WithDeliverabilityCheck(form.DNSDeliverability))
	}
	return opts
}

// NewAssistant wires an assistant. docs and handoff may be nil.
func NewAssistant(cfg config.Config, completer conversation.Completer, docs *documents.Service, handoff conversation.Handoff, logger *slog.Logger) *conversation.Assistant {
	opts := []conversation.AssistantOption{
		conversation.WithFormOptions(FormOptions(cfg)...),
		conversation.WithLogger(logger),
	}
	if docs != nil {
		opts = append(opts, conversation.WithSearcher(docs))
	}
	if handoff != nil {
		opts = append(opts, conversation.WithHandoff(handoff))
	}
	return conversation.NewAssistant(completer, opts...)
}
