package ui

// Raw ANSI codes used by the package loggers. Terminal output of the
// commands goes through the lipgloss styles in styles.go.
const (
	Reset = "\033[0m"
	// LegacyBold is the raw ANSI code for bold text
	LegacyBold = "\033[1m"
	FgCyan     = "\033[36m"
	FgGreen    = "\033[32m"
	FgMagenta  = "\033[35m"
	FgYellow   = "\033[33m"
	FgRed      = "\033[31m"
)

// Color wraps a string with the given ANSI code.
func Color(s string, code string) string {
	return code + s + Reset
}

// SeverityCode maps a compliance severity to its log colour.
func SeverityCode(severity string) string {
	switch severity {
	case "high":
		return FgRed
	case "medium":
		return FgYellow
	default:
		return FgCyan
	}
}
