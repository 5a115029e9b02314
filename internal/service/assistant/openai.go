package assistant

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/drivelink/voicebot/internal/config"
	"github.com/drivelink/voicebot/internal/model/chat"
)

// openaiBackend implements backend against the OpenAI assistant thread API.
type openaiBackend struct {
	client      openai.Client
	assistantID string
}

func newOpenAIBackend(cfg config.AssistantConfig) *openaiBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &openaiBackend{
		client:      openai.NewClient(opts...),
		assistantID: cfg.AssistantID,
	}
}

func (b *openaiBackend) createThread(ctx context.Context) (string, error) {
	thread, err := b.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (b *openaiBackend) appendUserMessage(ctx context.Context, conversationID, text string) error {
	_, err := b.client.Beta.Threads.Messages.New(ctx, conversationID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: param.NewOpt(text),
		},
	})
	return err
}

func (b *openaiBackend) runToTerminal(ctx context.Context, conversationID string) (string, error) {
	run, err := b.client.Beta.Threads.Runs.NewAndPoll(ctx, conversationID, openai.BetaThreadRunNewParams{
		AssistantID: b.assistantID,
	}, 0)
	if err != nil {
		return "", err
	}
	return string(run.Status), nil
}

func (b *openaiBackend) latestAnswer(ctx context.Context, conversationID string) (string, []string, error) {
	page, err := b.client.Beta.Threads.Messages.List(ctx, conversationID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
		Limit: openai.Int(1),
	})
	if err != nil {
		return "", nil, err
	}

	var (
		text      strings.Builder
		citations []string
	)
	for _, msg := range page.Data {
		for _, part := range msg.Content {
			if part.Type != "text" {
				continue
			}
			text.WriteString(part.Text.Value)
			for _, ann := range part.Text.Annotations {
				// Annotations other than file citations are skipped, never fatal.
				if ann.Type == "file_citation" && ann.FileCitation.FileID != "" {
					citations = append(citations, ann.FileCitation.FileID)
				}
			}
		}
	}
	return text.String(), citations, nil
}

func (b *openaiBackend) streamRun(ctx context.Context, conversationID string, push func(string) bool) error {
	stream := b.client.Beta.Threads.Runs.NewStreaming(ctx, conversationID, openai.BetaThreadRunNewParams{
		AssistantID: b.assistantID,
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Event != "thread.message.delta" {
			continue
		}
		delta := evt.AsThreadMessageDelta()
		for _, part := range delta.Data.Delta.Content {
			if part.Type != "text" || part.Text.Value == "" {
				continue
			}
			// A false push means the consumer is gone; keep pulling so the
			// upstream stream finishes naturally, discard the rest.
			push(part.Text.Value)
		}
	}
	return stream.Err()
}

func (b *openaiBackend) transcript(ctx context.Context, conversationID string) ([]chat.HistoryEntry, error) {
	page, err := b.client.Beta.Threads.Messages.List(ctx, conversationID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderAsc,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]chat.HistoryEntry, 0, len(page.Data))
	for _, msg := range page.Data {
		var content strings.Builder
		for _, part := range msg.Content {
			if part.Type == "text" {
				content.WriteString(part.Text.Value)
			}
		}
		entries = append(entries, chat.HistoryEntry{
			Role:      string(msg.Role),
			Content:   content.String(),
			CreatedAt: msg.CreatedAt,
		})
	}
	return entries, nil
}
