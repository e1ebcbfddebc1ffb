package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCmd builds the esgctl command tree. Flags can also be set through
// ESGCTL_* environment variables.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("esgctl")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "esgctl",
		Short: "Score ESG questionnaires offline",
		Long: `esgctl scores supplier ESG questionnaires without a running API.

Questionnaires are read as JSON or YAML and scored with the same rules the
API applies: pillar scores, business and overall scores, and letter grades.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch v.GetString("output") {
			case "table", "json":
			default:
				return fmt.Errorf("unknown output format %q (table|json)", v.GetString("output"))
			}
			if v.GetBool("no-color") {
				color.NoColor = true
			}
			return nil
		},
	}

	root.PersistentFlags().StringP("output", "o", "table", "Output format (table|json)")
	root.PersistentFlags().Bool("no-color", false, "Disable colored grades")
	_ = v.BindPFlag("output", root.PersistentFlags().Lookup("output"))
	_ = v.BindPFlag("no-color", root.PersistentFlags().Lookup("no-color"))

	root.AddCommand(newScoreCmd(v), newGradeCmd(v))
	return root
}
