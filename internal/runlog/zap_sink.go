package runlog

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mdkeep/internal/model"
)

type zapSink struct {
	logger *zap.Logger
}

// Zap forwards run entries to the process logger.
func Zap(ctx context.Context, fields ...zap.Field) Sink {
	return &zapSink{logger: logutil.GetLogger(ctx).With(fields...)}
}

func (s *zapSink) Append(entry model.LogEntry) {
	switch entry.Level {
	case model.LogLevelError:
		s.logger.Error(entry.Message)
	case model.LogLevelWarn:
		s.logger.Warn(entry.Message)
	default:
		s.logger.Info(entry.Message)
	}
}
