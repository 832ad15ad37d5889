package ui

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
)

// Palette shared by every renderer in the package.
var (
	ColorPrimary   = lipgloss.Color("#2563EB") // Blue
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorHighlight = lipgloss.Color("#A855F7") // Violet

	ColorText     = lipgloss.Color("#F9FAFB")
	ColorTextDim  = lipgloss.Color("#9CA3AF")
	ColorTextMute = lipgloss.Color("#6B7280")
)

type styleWrapper struct {
	style lipgloss.Style
}

func (s styleWrapper) Render(str string) string {
	return s.style.Render(str)
}

// Bold returns a copy of the style with bold set to v.
func (s styleWrapper) Bold(v bool) styleWrapper {
	return styleWrapper{s.style.Bold(v)}
}

// Text styles
var (
	Bold      = styleWrapper{lipgloss.NewStyle().Bold(true)}
	Dim       = styleWrapper{lipgloss.NewStyle().Foreground(ColorTextDim)}
	Muted     = styleWrapper{lipgloss.NewStyle().Foreground(ColorTextMute)}
	Success   = styleWrapper{lipgloss.NewStyle().Foreground(ColorSuccess)}
	Warning   = styleWrapper{lipgloss.NewStyle().Foreground(ColorWarning)}
	Error     = styleWrapper{lipgloss.NewStyle().Foreground(ColorError)}
	Primary   = styleWrapper{lipgloss.NewStyle().Foreground(ColorPrimary)}
	Secondary = styleWrapper{lipgloss.NewStyle().Foreground(ColorSecondary)}
	Highlight = styleWrapper{lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)}
)

func GetCheckMark() string { return Success.Render("✓") }
func GetCrossMark() string { return Error.Render("✗") }
func GetWarnMark() string  { return Warning.Render("⚠") }
func GetInfoMark() string  { return Secondary.Render("ℹ") }
func GetBullet() string    { return Muted.Render("•") }

type boxWrapper struct {
	style lipgloss.Style
}

func (b boxWrapper) Render(str string) string {
	return b.style.Render(str)
}

func newBox(border color.Color) boxWrapper {
	return boxWrapper{lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)}
}

// Panels
var (
	Box          = newBox(ColorMuted)
	HighlightBox = newBox(ColorPrimary)
	SuccessBox   = newBox(ColorSuccess)
	WarningBox   = newBox(ColorWarning)
	ErrorBox     = newBox(ColorError)
)

// Headers
var (
	Title         = styleWrapper{lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)}
	Subtitle      = styleWrapper{lipgloss.NewStyle().Foreground(ColorTextDim).Italic(true)}
	SectionHeader = styleWrapper{lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)}
)

// Step states, shared by the workflow and the stage tracker.
var (
	StepPending  = styleWrapper{lipgloss.NewStyle().Foreground(ColorMuted)}
	StepRunning  = styleWrapper{lipgloss.NewStyle().Foreground(ColorSecondary)}
	StepComplete = styleWrapper{lipgloss.NewStyle().Foreground(ColorSuccess)}
	StepFailed   = styleWrapper{lipgloss.NewStyle().Foreground(ColorError)}
	StepSkipped  = styleWrapper{lipgloss.NewStyle().Foreground(ColorWarning)}
)

// BandStyle returns the style of a sufficiency colour band
// ("green", "yellow" or "red").
func BandStyle(band string) styleWrapper {
	switch band {
	case "green":
		return Success
	case "yellow":
		return Warning
	default:
		return Error
	}
}

// ScoreStyle styles a 0-100 score: green from 80, amber from 50.
func ScoreStyle(score float64) styleWrapper {
	switch {
	case score >= 80:
		return Success
	case score >= 50:
		return Warning
	default:
		return Error
	}
}

// SeverityStyle styles a compliance severity label.
func SeverityStyle(severity string) styleWrapper {
	switch severity {
	case "high":
		return Error.Bold(true)
	case "medium":
		return Warning
	default:
		return Secondary
	}
}

// ProgressBar draws a width-cell bar for a 0-100 score.
func ProgressBar(score float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(score / 100 * float64(width))
	filled = max(0, min(width, filled))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return ScoreStyle(score).Render(bar)
}

// FormatPercent renders a score as "NN.NN%" in its score colour.
func FormatPercent(score float64) string {
	return ScoreStyle(score).Render(fmt.Sprintf("%.2f%%", score))
}

func StyledText(s string, style lipgloss.Style) string {
	return style.Render(s)
}

// FormatKeyValue renders "key: value" with a dimmed key.
func FormatKeyValue(key, value string) string {
	return Dim.Render(key+": ") + value
}

// FormatStatus prefixes message with the icon for status
// ("success", "error", "warning" or "info").
func FormatStatus(status, message string) string {
	var icon string
	switch status {
	case "success":
		icon = GetCheckMark()
	case "error":
		icon = GetCrossMark()
	case "warning":
		icon = GetWarnMark()
	case "info":
		icon = GetInfoMark()
	default:
		icon = GetBullet()
	}
	return icon + " " + message
}

// FangColorScheme maps the palette onto fang's help and error output.
func FangColorScheme(c lipgloss.LightDarkFunc) fang.ColorScheme {
	return fang.ColorScheme{
		Base:           ColorText,
		Title:          ColorPrimary,
		Description:    ColorTextDim,
		Codeblock:      c(lipgloss.Color("#1F2937"), lipgloss.Color("#2F2E36")),
		Program:        ColorSecondary,
		DimmedArgument: ColorMuted,
		Comment:        ColorMuted,
		Flag:           ColorSuccess,
		FlagDefault:    ColorTextDim,
		Command:        ColorHighlight,
		QuotedString:   ColorSecondary,
		Argument:       ColorText,
		Help:           ColorTextDim,
		Dash:           ColorMuted,
		ErrorHeader:    [2]color.Color{ColorText, ColorError},
		ErrorDetails:   ColorError,
	}
}

const BannerASCII = `
 ___ _  _ ___ _____ ___ ___  ___ ___  ___ ___
|_ _| \| / __|_   _|_ _/ __|/ __/ _ \| _ \ __|
 | || .' \__ \ | |  | |\__ \ (_| (_) |   / _|
|___|_|\_|___/ |_| |___|___/\___\___/|_|_\___|
`

// RenderBanner renders the banner in the secondary colour with a tagline.
func RenderBanner() string {
	return Secondary.Render(BannerASCII) + "\n" + Subtitle.Render("evidence-driven AICTE/UGC scoring")
}
