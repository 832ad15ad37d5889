package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/approval"
	bio "github.com/idlab-discover/instiscore/internal/io"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var (
	classifyInput  string
	classifyOutput string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a document's approval type and list the documents it requires",
	Long: "Classify plain document text as AICTE/UGC and new/renewal from its keywords, then print the " +
		"document checklist for that approval type. Use -i - to read standard input.",
	RunE: runClassify,
}

type classifyResult struct {
	Classification approval.Classification `json:"classification"`
	ApprovalType   string                  `json:"approval_type"`
	Documents      []approval.Document     `json:"required_documents"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	path := strings.TrimSpace(viper.GetString("classify.input"))
	if path == "" {
		return apperr.User("--input is required (a text file, or - for stdin)")
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return apperr.Input(path, err)
	}

	rs, err := loadRules()
	if err != nil {
		return err
	}
	c := approval.NewClassifier(rs).Classify(string(data))
	checklist := approval.CheckReadiness(rs, c, nil)
	res := classifyResult{Classification: c, ApprovalType: checklist.ApprovalType, Documents: checklist.Missing}

	if out := strings.TrimSpace(viper.GetString("classify.output")); out != "" {
		return bio.WriteResult(res, out, "auto")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, ui.FormatKeyValue("Category", ui.Highlight.Render(string(c.Category))))
	fmt.Fprintln(w, ui.FormatKeyValue("Subtype", ui.Highlight.Render(string(c.Subtype))))
	fmt.Fprintln(w, ui.FormatKeyValue("Confidence", fmt.Sprintf("%.2f", c.Confidence)))
	if len(c.Signals) > 0 {
		fmt.Fprintln(w, ui.FormatKeyValue("Signals", ui.Dim.Render(strings.Join(c.Signals, ", "))))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.SectionHeader.Render(fmt.Sprintf("Documents required for %s (%d)", res.ApprovalType, len(res.Documents))))
	for _, d := range res.Documents {
		fmt.Fprintln(w, ui.GetBullet()+" "+ui.Bold.Render(d.Key)+" "+ui.Dim.Render(d.Description))
	}
	return nil
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyInput, "input", "i", "", "document text file, or - for stdin")
	classifyCmd.Flags().StringVarP(&classifyOutput, "output", "o", "", "write the classification to a .json or .yaml file")

	viper.BindPFlag("classify.input", classifyCmd.Flags().Lookup("input"))
	viper.BindPFlag("classify.output", classifyCmd.Flags().Lookup("output"))
}
