package ingest

import (
	"io"

	"github.com/idlab-discover/instiscore/internal/logging"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Ingest:", PrefixColor: ui.FgCyan}

// SetLogger sets an optional destination for ingest logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(batchID, format string, args ...any) {
	logger.Logf(batchID, format, args...)
}
