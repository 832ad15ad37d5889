package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/compare"
	bio "github.com/idlab-discover/instiscore/internal/io"
	"github.com/idlab-discover/instiscore/internal/store"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var (
	compareDB       string
	compareRank     bool
	compareBy       string
	compareWeights  map[string]string
	compareTop      int
	compareOutput   string
	compareLogLevel string
)

var compareCmd = &cobra.Command{
	Use:   "compare <batch-id>...",
	Short: "Compare stored batches side by side, or rank them by KPI",
	Long: "Compare 2 to 10 stored batches: overall winner, per-KPI winners, strengths and weaknesses. " +
		"With --rank, order any number of batches by one KPI (--by) or a weighted mix (--weight fsr=0.4,placement=0.6) " +
		"and keep the top N. Batch ids may also be comma-separated.",
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	level, err := resolveLogLevel(viper.GetString("compare.log-level"))
	if err != nil {
		return err
	}
	configureLogging(level, false, cmd.ErrOrStderr())

	rs, err := loadRules()
	if err != nil {
		return err
	}
	path := viper.GetString("compare.db")
	if path == "" {
		path = store.DefaultDBName
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	c := compare.New(rs, db)
	ids := splitIDs(args)
	out := strings.TrimSpace(viper.GetString("compare.output"))
	w := cmd.OutOrStdout()

	if viper.GetBool("compare.rank") {
		weights, label, err := c.ParseWeights(viper.GetString("compare.by"), viper.GetStringMapString("compare.weight"))
		if err != nil {
			return err
		}
		r, err := c.Rank(ids, weights, label, viper.GetInt("compare.top"))
		if err != nil {
			return err
		}
		if out != "" {
			return bio.WriteResult(r, out, "auto")
		}
		ui.PrintRanking(w, toRankingView(r, weights))
		return nil
	}

	if viper.IsSet("compare.weight") && len(viper.GetStringMapString("compare.weight")) > 0 {
		return apperr.User("--weight only applies with --rank")
	}
	cmp, err := c.Compare(ids)
	if err != nil {
		return err
	}
	if out != "" {
		return bio.WriteResult(cmp, out, "auto")
	}
	ui.PrintComparison(w, toComparisonView(cmp))
	return nil
}

// splitIDs accepts ids as separate arguments or comma-separated.
func splitIDs(args []string) []string {
	var ids []string
	for _, a := range args {
		for _, id := range strings.Split(a, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func toComparisonView(c *compare.Comparison) ui.ComparisonView {
	v := ui.ComparisonView{
		Winner:  c.WinnerName,
		Notes:   c.Notes,
		Valid:   c.Valid,
		Message: c.Message,
		Skipped: toSkipRows(c.Skipped),
	}
	for _, in := range c.Institutions {
		v.Rows = append(v.Rows, ui.CompareRow{
			BatchID:     in.BatchID,
			Name:        in.Name,
			Mode:        string(in.Mode),
			Score:       in.Overall,
			Sufficiency: in.Sufficiency,
			Flags:       in.ComplianceCount,
			Strengths:   in.Strengths,
			Weaknesses:  in.Weaknesses,
		})
	}
	for _, cw := range c.CategoryWinners {
		v.Categories = append(v.Categories, ui.CategoryRow{KPI: cw.Name, Winner: cw.Label, Value: cw.Value, TiedWith: cw.TiedWith})
	}
	return v
}

func toRankingView(r *compare.Ranking, w compare.Weights) ui.RankingView {
	v := ui.RankingView{
		Label:        r.Label,
		TopN:         r.TopN,
		Insufficient: toSkipRows(r.Insufficient),
	}
	if len(w) > 1 {
		v.Weights = w.String()
	}
	for _, in := range r.Institutions {
		v.Rows = append(v.Rows, ui.CompareRow{
			Rank:       in.Rank,
			BatchID:    in.BatchID,
			Name:       in.Name,
			Mode:       string(in.Mode),
			Score:      in.Score,
			Strengths:  in.Strengths,
			Weaknesses: in.Weaknesses,
		})
	}
	return v
}

func toSkipRows(s []compare.Skipped) []ui.SkipRow {
	rows := make([]ui.SkipRow, len(s))
	for i, x := range s {
		rows[i] = ui.SkipRow{BatchID: x.BatchID, Reason: x.Reason}
	}
	return rows
}

func init() {
	compareCmd.Flags().StringVar(&compareDB, "db", "", "history database path (default "+store.DefaultDBName+")")
	compareCmd.Flags().BoolVarP(&compareRank, "rank", "r", false, "rank the batches instead of comparing them")
	compareCmd.Flags().StringVar(&compareBy, "by", "", "KPI to rank by: overall|fsr|infrastructure|placement|lab|research|governance|outcome")
	compareCmd.Flags().StringToStringVarP(&compareWeights, "weight", "w", nil, "weighted ranking, e.g. fsr=0.4,placement=0.6")
	compareCmd.Flags().IntVarP(&compareTop, "top", "n", 0, "number of ranked batches to keep (default from the rule set)")
	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "", "write the comparison to a .json or .yaml file")
	compareCmd.Flags().StringVar(&compareLogLevel, "log-level", "", "log level: quiet|standard|debug")

	viper.BindPFlag("compare.db", compareCmd.Flags().Lookup("db"))
	viper.BindPFlag("compare.rank", compareCmd.Flags().Lookup("rank"))
	viper.BindPFlag("compare.by", compareCmd.Flags().Lookup("by"))
	viper.BindPFlag("compare.weight", compareCmd.Flags().Lookup("weight"))
	viper.BindPFlag("compare.top", compareCmd.Flags().Lookup("top"))
	viper.BindPFlag("compare.output", compareCmd.Flags().Lookup("output"))
	viper.BindPFlag("compare.log-level", compareCmd.Flags().Lookup("log-level"))
}
