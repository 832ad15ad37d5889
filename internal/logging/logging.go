package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/idlab-discover/instiscore/internal/ui"
)

// Logger is a small opt-in logger shared by the engine packages.
// A nil Writer disables it.
//
// Lines are written as:
//
//	<ColoredPrefix> batch=<batchID> <formattedMessage>\n
//
// where <batchID> is trimmed and defaults to "(none)". Batches are scored
// concurrently, so each line is assembled first and written with a single
// Write under the logger's lock.
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string

	// OmitBatch drops the "batch=<id>" field, for packages that work
	// outside a batch (rules loading, normalizer).
	OmitBatch bool

	mu sync.Mutex
}

func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	l.Writer = w
	l.mu.Unlock()
}

func (l *Logger) Enabled() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Writer != nil
}

func (l *Logger) Logf(batchID string, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Writer == nil {
		return
	}
	_, _ = io.WriteString(l.Writer, l.line(batchID, fmt.Sprintf(format, args...)))
}

func (l *Logger) line(batchID, msg string) string {
	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	if l.PrefixColor != "" {
		prefix = ui.Color(prefix, l.PrefixColor)
	}

	var b strings.Builder
	b.WriteString(prefix)
	if !l.OmitBatch {
		id := strings.TrimSpace(batchID)
		if id == "" {
			id = "(none)"
		}
		b.WriteString(" batch=")
		b.WriteString(id)
	}
	b.WriteByte(' ')
	b.WriteString(strings.TrimRight(msg, "\n"))
	b.WriteByte('\n')
	return b.String()
}
