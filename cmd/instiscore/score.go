package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/ingest"
	bio "github.com/idlab-discover/instiscore/internal/io"
	"github.com/idlab-discover/instiscore/internal/pipeline"
	"github.com/idlab-discover/instiscore/internal/rules"
	"github.com/idlab-discover/instiscore/internal/store"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var (
	scoreInputs        []string
	scoreFormat        string
	scoreMode          string
	scoreNewUniversity bool
	scoreOutput        string
	scoreOutputFormat  string
	scoreDB            string
	scoreSave          bool
	scoreConcurrency   int
	scorePlain         bool
	scoreVerbose       bool
	scoreLogLevel      string
	scoreInteractive   bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [batch-file...]",
	Short: "Score extracted batches: sufficiency, KPIs, compliance and approval readiness",
	Long: "Score one or more batch payloads (JSON or YAML extractor output). Independent batches " +
		"are scored concurrently; each result can be written to a file and stored in the history database.",
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	level, err := resolveLogLevel(viper.GetString("score.log-level"))
	if err != nil {
		return err
	}
	quiet := level == levelQuiet
	plain := viper.GetBool("score.plain-summary")
	interactive := viper.GetBool("score.interactive")
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	progressUI := !quiet && !plain && isTerminal(errOut)
	configureLogging(level, progressUI, errOut)

	inputs := cleanList(append(viper.GetStringSlice("score.input"), args...))
	if len(inputs) == 0 {
		return apperr.User("at least one batch file is required (--input or positional argument)")
	}

	format := strings.ToLower(strings.TrimSpace(viper.GetString("score.format")))
	switch format {
	case "", "auto", "json", "yaml":
	default:
		return apperr.Userf("invalid --format %q (expected json|yaml|auto)", format)
	}

	var modeOverride rules.Mode
	if raw := strings.TrimSpace(viper.GetString("score.mode")); raw != "" {
		if modeOverride, err = rules.ParseMode(raw); err != nil {
			return apperr.User(err.Error())
		}
	}
	newUniversity := viper.GetBool("score.new-university")
	newUniversitySet := cmd.Flags().Changed("new-university") || viper.InConfig("score.new-university")

	if interactive && modeOverride == "" {
		m, nu, err := promptMode(modeOverride)
		if err != nil {
			return err
		}
		modeOverride, newUniversity, newUniversitySet = m, nu, true
	}

	rs, err := loadRules()
	if err != nil {
		return err
	}

	batches, err := loadBatches(ingest.NewParser(rs), inputs, format, progressUI, errOut)
	if err != nil {
		return err
	}
	applyOverrides(batches, modeOverride, newUniversity, newUniversitySet)

	scoreUI := ui.NewScoreUI(errOut, !progressUI, progressUI, stageNames())
	engine, err := pipeline.New(rs, pipeline.WithObserver(scoreObserver{ui: scoreUI}))
	if err != nil {
		return err
	}

	ids := make([]string, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	scoreUI.Start(ids)
	results, err := engine.RunAll(ctx, batches, viper.GetInt("score.concurrency"))
	scoreUI.Finish(err)
	if err != nil {
		return fmt.Errorf("score batches: %w", err)
	}

	if !quiet {
		report := ui.NewReportUI(out, false, viper.GetBool("score.verbose"))
		for _, res := range results {
			if plain {
				report.PrintSimpleReport(toBatchReport(res))
				continue
			}
			report.PrintReport(toBatchReport(res))
		}
	}

	output := strings.TrimSpace(viper.GetString("score.output"))
	if output != "" {
		var v any = results
		if len(results) == 1 {
			v = results[0]
		}
		if err := bio.WriteResult(v, output, viper.GetString("score.output-format")); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	}

	saved := ""
	if viper.GetBool("score.save") {
		dbPath := viper.GetString("score.db")
		if dbPath == "" {
			dbPath = store.DefaultDBName
		}
		ok := true
		if interactive {
			if ok, err = confirmSave(len(results), dbPath); err != nil {
				return err
			}
		}
		if ok {
			if err := saveResults(dbPath, results); err != nil {
				return err
			}
			saved = dbPath
		}
	}

	if !plain {
		scoreUI.PrintSummary(len(results), output, saved)
	}
	return nil
}

// applyOverrides applies --mode and --new-university to every batch. The
// new-university flag is set before the mode so that an explicit flag is
// not replaced by the classification.
func applyOverrides(batches []*ingest.Batch, mode rules.Mode, newUniversity, newUniversitySet bool) {
	for _, b := range batches {
		if newUniversitySet {
			b.SetNewUniversity(newUniversity)
		}
		if mode != "" {
			b.SetMode(mode)
		}
	}
}

// loadBatches parses every input file, failing on the first bad payload.
func loadBatches(p *ingest.Parser, paths []string, format string, progressUI bool, w io.Writer) ([]*ingest.Batch, error) {
	var spin *ui.SimpleSpinner
	if progressUI {
		spin = ui.NewSimpleSpinner(w, fmt.Sprintf("Loading %d batch file(s)", len(paths)))
		spin.Start()
	}

	batches := make([]*ingest.Batch, 0, len(paths))
	for _, path := range paths {
		b, err := p.Load(path, format)
		if err != nil {
			if spin != nil {
				spin.Stop(false, "Failed to load "+path)
			}
			return nil, apperr.Input(path, err)
		}
		if len(b.Dropped) > 0 && spin != nil {
			spin.UpdateMessage(fmt.Sprintf("%s: ignored unknown blocks %s", path, strings.Join(b.Dropped, ", ")))
		}
		batches = append(batches, b)
	}

	if spin != nil {
		spin.Stop(true, fmt.Sprintf("Loaded %d batch(es)", len(batches)))
	}
	return batches, nil
}

func saveResults(path string, results []*pipeline.Result) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	for _, res := range results {
		if err := db.SaveResult(res); err != nil {
			return fmt.Errorf("save batch %s: %w", res.BatchID, err)
		}
	}
	return nil
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func init() {
	scoreCmd.Flags().StringSliceVarP(&scoreInputs, "input", "i", nil, "batch payload file(s); repeat or comma-separate")
	scoreCmd.Flags().StringVarP(&scoreFormat, "format", "f", "", "input format: json|yaml|auto")
	scoreCmd.Flags().StringVarP(&scoreMode, "mode", "m", "", "override the regulatory mode: aicte|ugc")
	scoreCmd.Flags().BoolVar(&scoreNewUniversity, "new-university", false, "treat the institution as a new university (UGC)")
	scoreCmd.Flags().StringVarP(&scoreOutput, "output", "o", "", "write the full result(s) to this .json or .yaml file")
	scoreCmd.Flags().StringVar(&scoreOutputFormat, "output-format", "", "output format: json|yaml|auto")
	scoreCmd.Flags().StringVar(&scoreDB, "db", "", "history database path (default "+store.DefaultDBName+")")
	scoreCmd.Flags().BoolVar(&scoreSave, "save", false, "store the results in the history database")
	scoreCmd.Flags().IntVarP(&scoreConcurrency, "concurrency", "c", 4, "batches scored in parallel (0 = all at once)")
	scoreCmd.Flags().BoolVar(&scorePlain, "plain-summary", false, "print a plain-text summary instead of the styled report")
	scoreCmd.Flags().BoolVarP(&scoreVerbose, "verbose", "v", false, "include the per-block table in the report")
	scoreCmd.Flags().StringVar(&scoreLogLevel, "log-level", "", "log level: quiet|standard|debug")
	scoreCmd.Flags().BoolVar(&scoreInteractive, "interactive", false, "prompt for the mode and before saving")

	viper.BindPFlag("score.input", scoreCmd.Flags().Lookup("input"))
	viper.BindPFlag("score.format", scoreCmd.Flags().Lookup("format"))
	viper.BindPFlag("score.mode", scoreCmd.Flags().Lookup("mode"))
	viper.BindPFlag("score.new-university", scoreCmd.Flags().Lookup("new-university"))
	viper.BindPFlag("score.output", scoreCmd.Flags().Lookup("output"))
	viper.BindPFlag("score.output-format", scoreCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("score.db", scoreCmd.Flags().Lookup("db"))
	viper.BindPFlag("score.save", scoreCmd.Flags().Lookup("save"))
	viper.BindPFlag("score.concurrency", scoreCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("score.plain-summary", scoreCmd.Flags().Lookup("plain-summary"))
	viper.BindPFlag("score.verbose", scoreCmd.Flags().Lookup("verbose"))
	viper.BindPFlag("score.log-level", scoreCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("score.interactive", scoreCmd.Flags().Lookup("interactive"))
}
