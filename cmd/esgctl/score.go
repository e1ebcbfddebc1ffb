package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esg-backend/internal/esg"
	"esg-backend/internal/schemas"
)

func newScoreCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <file|->",
		Short: "Score a questionnaire file",
		Long: `Score a questionnaire read from a file, or from stdin when the argument is "-".

The input format follows the file extension (.yaml and .yml are YAML, anything
else is JSON) unless --input-format is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			sub, err := decodeSubmission(data, inputFormat(args[0], v.GetString("input-format")))
			if err != nil {
				return err
			}
			rep := esg.GradeResult(esg.Score(sub))
			if v.GetString("output") == "json" {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			renderReport(cmd.OutOrStdout(), rep)
			if v.GetBool("subcategories") {
				renderSubcategories(cmd.OutOrStdout(), sub, rep)
			}
			return nil
		},
	}
	cmd.Flags().String("input-format", "", "Input format (json|yaml), detected from the file extension by default")
	cmd.Flags().Bool("subcategories", false, "Also print per-subcategory scores")
	_ = v.BindPFlag("input-format", cmd.Flags().Lookup("input-format"))
	_ = v.BindPFlag("subcategories", cmd.Flags().Lookup("subcategories"))
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire: %w", err)
	}
	return data, nil
}

func inputFormat(path, flag string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func decodeSubmission(data []byte, format string) (esg.Submission, error) {
	switch format {
	case "json":
		sub, _, err := schemas.ParseSubmission(data)
		return sub, err
	case "yaml":
		return schemas.ParseSubmissionYAML(data)
	default:
		return esg.Submission{}, fmt.Errorf("unknown input format %q (json|yaml)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderReport(w io.Writer, rep esg.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Pillar", "Score", "Grade"})
	rows := []struct {
		name string
		gs   esg.GradedScore
	}{
		{"Environmental", esg.GradedScore{Score: rep.Environmental.Score, Grade: rep.Environmental.Grade}},
		{"Social", esg.GradedScore{Score: rep.Social.Score, Grade: rep.Social.Grade}},
		{"Governance", esg.GradedScore{Score: rep.Governance.Score, Grade: rep.Governance.Grade}},
		{"Business", rep.Business},
		{"Industry", rep.Industry},
		{"Overall", rep.Overall},
	}
	for _, r := range rows {
		table.Append([]string{r.name, formatScore(r.gs.Score), colorGrade(r.gs.Grade)})
	}
	table.Render()
}

func renderSubcategories(w io.Writer, sub esg.Submission, rep esg.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Pillar", "Subcategory", "Score"})
	pillars := []struct {
		name string
		subs []esg.Subcategory
		cat  esg.GradedCategory
	}{
		{"Environmental", sub.Environment.Subcategories(), rep.Environmental},
		{"Social", sub.Social.Subcategories(), rep.Social},
		{"Governance", sub.Governance.Subcategories(), rep.Governance},
	}
	for _, p := range pillars {
		for _, sc := range p.subs {
			table.Append([]string{p.name, sc.Name, formatScore(p.cat.Subcategories[sc.Name])})
		}
	}
	table.Render()
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
