package pipeline

import (
	"io"

	"github.com/idlab-discover/instiscore/internal/logging"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Pipeline:", PrefixColor: ui.FgGreen}

// SetLogger sets an optional destination for pipeline logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(batchID, format string, args ...any) {
	logger.Logf(batchID, format, args...)
}
