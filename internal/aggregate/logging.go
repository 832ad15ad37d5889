package aggregate

import (
	"io"

	"github.com/idlab-discover/instiscore/internal/logging"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Aggregate:", PrefixColor: ui.FgCyan, OmitBatch: true}

func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
