package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esg-backend/internal/esg"
)

func newGradeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "grade <score>",
		Short: "Print the letter grade for a score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", args[0], err)
			}
			g := esg.AssignGrade(score)
			if v.GetString("output") == "json" {
				return writeJSON(cmd.OutOrStdout(), esg.GradedScore{Score: score, Grade: g})
			}
			fmt.Fprintln(cmd.OutOrStdout(), colorGrade(g))
			return nil
		},
	}
}

var gradeColors = map[esg.Grade]*color.Color{
	esg.GradeA: color.New(color.FgGreen, color.Bold),
	esg.GradeB: color.New(color.FgGreen),
	esg.GradeC: color.New(color.FgYellow),
	esg.GradeD: color.New(color.FgRed),
	esg.GradeE: color.New(color.FgRed, color.Bold),
}

func colorGrade(g esg.Grade) string {
	if c, ok := gradeColors[g]; ok {
		return c.Sprint(string(g))
	}
	return string(g)
}
