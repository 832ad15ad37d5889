package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/ingest"
	"github.com/idlab-discover/instiscore/internal/rules"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var (
	blocksMode   string
	blocksFields bool
)

var blocksCmd = &cobra.Command{
	Use:   "blocks [query]",
	Short: "List the block catalogue of a regulatory mode",
	Long:  "List the block types a mode requires, with their required and major fields. A query fuzzy-matches block types and names.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBlocks,
}

func runBlocks(cmd *cobra.Command, args []string) error {
	mode, err := rules.ParseMode(viper.GetString("blocks.mode"))
	if err != nil {
		return apperr.User(err.Error())
	}
	rs, err := loadRules()
	if err != nil {
		return err
	}

	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	specs := ingest.FindBlocks(rs, mode, query)

	w := cmd.OutOrStdout()
	if len(specs) == 0 {
		fmt.Fprintln(w, ui.FormatStatus("warning", fmt.Sprintf("no %s block matches %q", strings.ToUpper(string(mode)), query)))
		return nil
	}

	fmt.Fprintln(w, ui.SectionHeader.Render(fmt.Sprintf("%s blocks (%d)", strings.ToUpper(string(mode)), len(specs))))
	showFields := viper.GetBool("blocks.fields")
	for _, s := range specs {
		line := ui.GetBullet() + " " + ui.Highlight.Render(s.Type) + " " + ui.Dim.Render(s.Name)
		if s.NewUniversityOnly {
			line += " " + ui.Warning.Render("(new universities only)")
		}
		fmt.Fprintln(w, line)
		if showFields {
			fmt.Fprintln(w, "    "+ui.FormatKeyValue("required", strings.Join(s.Required, ", ")))
			if len(s.Major) > 0 {
				fmt.Fprintln(w, "    "+ui.FormatKeyValue("major", strings.Join(s.Major, ", ")))
			}
		}
	}
	return nil
}

func init() {
	blocksCmd.Flags().StringVarP(&blocksMode, "mode", "m", "aicte", "regulatory mode: aicte|ugc")
	blocksCmd.Flags().BoolVar(&blocksFields, "fields", false, "show required and major fields")

	viper.BindPFlag("blocks.mode", blocksCmd.Flags().Lookup("mode"))
	viper.BindPFlag("blocks.fields", blocksCmd.Flags().Lookup("fields"))
}
