package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idlab-discover/instiscore/internal/rules"
	"github.com/idlab-discover/instiscore/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "instiscore",
	Short: "Evidence-driven sufficiency, KPI and compliance scoring for AICTE/UGC submissions",
	Long:  longDescription,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initUIAndBanner(cmd)
	},

	// Without a subcommand, show help with the banner.
	RunE: func(cmd *cobra.Command, args []string) error {
		initUIAndBanner(cmd)
		return cmd.Help()
	},
}

var (
	cfgFile   string
	rulesFile string
	version   string
)

func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetRootCmd returns the root command for fang.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.instiscore.yaml or ./config/defaults.yaml)")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "rule set YAML replacing the built-in catalogue and policy")
	viper.BindPFlag("rules", rootCmd.PersistentFlags().Lookup("rules"))

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		initUIAndBanner(cmd)
		defaultHelp(cmd, args)
	})

	rootCmd.AddCommand(scoreCmd, normalizeCmd, blocksCmd, historyCmd, classifyCmd, compareCmd)
}

func initConfig() {
	// INSTISCORE_SCORE_DB overrides score.db, and so on.
	viper.SetEnvPrefix("INSTISCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			cobra.CheckErr(fmt.Errorf("read config %s: %w", cfgFile, err))
		}
		announceConfig()
		return
	}

	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)
	viper.AddConfigPath("./config")

	viper.SetConfigName(".instiscore")
	err = viper.ReadInConfig()

	notFound := &viper.ConfigFileNotFoundError{}
	if err != nil && errors.As(err, notFound) {
		viper.SetConfigName("defaults")
		err = viper.ReadInConfig()
	}
	switch {
	case err != nil && !errors.As(err, notFound):
		cobra.CheckErr(err)
	case err == nil:
		announceConfig()
	}
}

func announceConfig() {
	fmt.Fprintln(os.Stderr, ui.Dim.Render("Using config file: ")+ui.Secondary.Render(viper.ConfigFileUsed()))
}

// loadRules returns the rule set named by --rules, or the built-in one.
func loadRules() (*rules.RuleSet, error) {
	path := strings.TrimSpace(viper.GetString("rules"))
	if path == "" {
		return rules.Default()
	}
	rs, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return rs, nil
}

const longDescription = "Scores institutional evidence extracted from AICTE/UGC submission documents: " +
	"block sufficiency with quality penalties, regulatory KPIs, fuzzy compliance checks and approval readiness. " +
	"Every score traces back to the text that supports it."

func initUIAndBanner(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	cmd.Root().Long = ui.RenderBanner() + "\n\n" + longDescription
}
