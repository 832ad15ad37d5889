package approval

import (
	"io"

	"github.com/idlab-discover/instiscore/internal/logging"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Approval:", PrefixColor: ui.FgMagenta, OmitBatch: true}

// SetLogger sets an optional destination for approval logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
