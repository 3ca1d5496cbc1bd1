package notify

import (
	"context"
	"log/slog"

	"github.com/kevinskey/gleeworld-sub014/internal/domain"
)

// Dispatcher delivers notification intents. Delivery, retry, and failure
// logging live behind this interface; the scheduling core only emits intents.
type Dispatcher interface {
	Dispatch(ctx context.Context, intents []domain.NotificationIntent)
}

// LogDispatcher records intents instead of sending them. It stands in until
// a real SMS/email gateway is wired up and is the default in development.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, intents []domain.NotificationIntent) {
	for _, in := range intents {
		d.logger.LogAttrs(ctx, slog.LevelInfo, "notification intent",
			slog.String("channel", string(in.Channel)),
			slog.String("to", in.To),
			slog.String("template_id", in.TemplateID),
			slog.Any("params", in.Params),
		)
	}
}
