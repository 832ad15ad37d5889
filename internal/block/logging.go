package block

import (
	"io"

	"github.com/idlab-discover/instiscore/internal/logging"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Enrich:", PrefixColor: ui.FgCyan, OmitBatch: true}

// SetLogger sets an optional destination for enrichment logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
