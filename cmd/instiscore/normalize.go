package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	bio "github.com/idlab-discover/instiscore/internal/io"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var (
	normalizeOutput   string
	normalizeLogLevel string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <value>...",
	Short: "Show how raw extracted values normalize to canonical numbers",
	Long: "Run values such as \"4.5 LPA\", \"₹ 2.5 crore\", \"12,000 sq ft\" or \"2023-24\" through the " +
		"normalizer and print the canonical value, unit, rupee side channel and parsed year.",
	Args: cobra.MinimumNArgs(1),
	RunE: runNormalize,
}

// normalized is one row of normalize output; it is also the -o file format.
type normalized struct {
	Input string   `json:"input"`
	Value *float64 `json:"value"`
	Unit  string   `json:"unit,omitempty"`
	Rule  string   `json:"rule,omitempty"`
	INR   *float64 `json:"inr,omitempty"`
	Year  *int     `json:"year,omitempty"`
}

func runNormalize(cmd *cobra.Command, args []string) error {
	level, err := resolveLogLevel(viper.GetString("normalize.log-level"))
	if err != nil {
		return err
	}
	configureLogging(level, false, cmd.ErrOrStderr())

	rows := make([]normalized, 0, len(args))
	for _, raw := range args {
		rows = append(rows, normalizeOne(raw))
	}

	if out := strings.TrimSpace(viper.GetString("normalize.output")); out != "" {
		return bio.WriteResult(rows, out, "auto")
	}

	w := cmd.OutOrStdout()
	for _, r := range rows {
		if r.Value == nil {
			fmt.Fprintf(w, "%s %s %s\n", ui.GetCrossMark(), ui.Bold.Render(r.Input), ui.Dim.Render("→ not a number"))
			continue
		}
		line := fmt.Sprintf("%s %s %s %s", ui.GetCheckMark(), ui.Bold.Render(r.Input), ui.Dim.Render("→"), ui.Highlight.Render(formatNumber(*r.Value)))
		if r.Unit != "" {
			line += " " + ui.Secondary.Render(r.Unit)
		}
		if r.INR != nil && r.Unit != string(normalize.UnitINR) {
			line += " " + ui.Dim.Render("(₹ "+formatNumber(*r.INR)+")")
		}
		if r.Year != nil {
			line += " " + ui.Dim.Render(fmt.Sprintf("year %d", *r.Year))
		}
		if r.Rule != "" {
			line += " " + ui.Muted.Render("["+r.Rule+"]")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func normalizeOne(raw string) normalized {
	row := normalized{Input: raw}
	res := normalize.ParseString(raw)
	if res.OK {
		v := normalize.Round2(res.Value)
		row.Value = &v
		row.Unit = string(res.Unit)
		row.Rule = res.Rule
		if res.HasINR {
			inr := normalize.Round2(res.INR)
			row.INR = &inr
		}
	}
	if y, ok := normalize.ParseYear(raw); ok && (res.Unit == normalize.UnitCount || !res.OK) {
		row.Year = &y
	}
	return row
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeOutput, "output", "o", "", "write the results to a .json or .yaml file")
	normalizeCmd.Flags().StringVar(&normalizeLogLevel, "log-level", "", "log level: quiet|standard|debug")

	viper.BindPFlag("normalize.output", normalizeCmd.Flags().Lookup("output"))
	viper.BindPFlag("normalize.log-level", normalizeCmd.Flags().Lookup("log-level"))
}
