package runlog

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/xxxsen/mdkeep/internal/model"
)

var (
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	infoStyle    = lipgloss.NewStyle()
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// Console renders entries as "[timestamp] message" lines, coloured by level.
func Console(w io.Writer) Sink {
	return &consoleSink{w: w}
}

func (s *consoleSink) Append(entry model.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, "%s %s\n", timeStyle.Render("["+entry.Timestamp()+"]"), styleFor(entry.Level).Render(entry.Message))
}

func styleFor(level model.LogLevel) lipgloss.Style {
	switch level {
	case model.LogLevelSuccess:
		return successStyle
	case model.LogLevelWarn:
		return warnStyle
	case model.LogLevelError:
		return errorStyle
	default:
		return infoStyle
	}
}
