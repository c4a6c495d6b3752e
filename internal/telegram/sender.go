package telegram

import (
	"context"
	"log/slog"
	"time"
)

// ChunkDelay is the pause between consecutive chunks of one message.
const ChunkDelay = 150 * time.Millisecond

// MessageAPI is the subset of Client used by Sender.
type MessageAPI interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error)
}

// Sender delivers the chunks of one composed message in order.
type Sender struct {
	api    MessageAPI
	delay  time.Duration
	logger *slog.Logger
}

// NewSender creates a Sender that pauses ChunkDelay between chunks.
func NewSender(api MessageAPI, logger *slog.Logger) *Sender {
	return &Sender{api: api, delay: ChunkDelay, logger: logger}
}

// Send posts chunks to chatID one at a time. Chunk i is fully delivered
// before chunk i+1 is attempted; the first failure aborts the rest.
// It returns the number of chunks delivered.
func (s *Sender) Send(ctx context.Context, chatID, parseMode string, chunks []string) (int, error) {
	for i, chunk := range chunks {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return i, err
			}
		}

		_, err := s.api.SendMessage(ctx, SendMessageRequest{
			ChatID:                chatID,
			Text:                  chunk,
			ParseMode:             parseMode,
			DisableWebPagePreview: true,
		})
		if err != nil {
			s.logger.Error("failed to send chunk",
				"chunk", i+1,
				"chunks", len(chunks),
				"error", err,
			)
			return i, err
		}
		s.logger.Debug("chunk sent", "chunk", i+1, "chunks", len(chunks), "bytes", len(chunk))
	}
	return len(chunks), nil
}

func (s *Sender) pause(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
