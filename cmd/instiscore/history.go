package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/store"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var (
	historyDB      string
	historyLimit   int
	historyBatch   string
	historyVerbose bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored batch results or show one of them",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("history.db")
	if path == "" {
		path = store.DefaultDBName
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	w := cmd.OutOrStdout()
	if id := strings.TrimSpace(viper.GetString("history.batch")); id != "" {
		res, err := db.LoadResult(id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Userf("batch %q is not stored in %s", id, path)
		}
		if err != nil {
			return err
		}
		ui.NewReportUI(w, false, viper.GetBool("history.verbose")).PrintReport(toBatchReport(res))
		total, flagged, err := db.CountBlocks(id)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, ui.Dim.Render(fmt.Sprintf("%d blocks stored, %d with quality flags; scored %s",
			total, flagged, res.ScoredAt.Local().Format("2006-01-02 15:04"))))
		return nil
	}

	batches, err := db.ListBatches(viper.GetInt("history.limit"))
	if err != nil {
		return err
	}
	ui.PrintHistory(w, toHistoryRows(batches))
	return nil
}

func init() {
	historyCmd.Flags().StringVar(&historyDB, "db", "", "history database path (default "+store.DefaultDBName+")")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum batches to list (0 = all)")
	historyCmd.Flags().StringVarP(&historyBatch, "batch", "b", "", "show the stored report of one batch")
	historyCmd.Flags().BoolVarP(&historyVerbose, "verbose", "v", false, "include the per-block table")

	viper.BindPFlag("history.db", historyCmd.Flags().Lookup("db"))
	viper.BindPFlag("history.limit", historyCmd.Flags().Lookup("limit"))
	viper.BindPFlag("history.batch", historyCmd.Flags().Lookup("batch"))
	viper.BindPFlag("history.verbose", historyCmd.Flags().Lookup("verbose"))
}
