package sufficiency

import (
	"io"

	"github.com/idlab-discover/instiscore/internal/logging"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Sufficiency:", PrefixColor: ui.FgYellow, OmitBatch: true}

// SetLogger sets an optional destination for sufficiency output/logs.
// When set to nil, sufficiency output/logs are disabled.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
