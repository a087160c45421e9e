package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-faker/pkg/models"
	"github.com/ekaya-inc/ekaya-faker/pkg/schema"
)

var (
	analyzeTable  string
	analyzeOutput string
	analyzeFields bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show what the generator knows about a table",
	Long: `Analyze prints the schema bundle for --table: generatable fields with
their constraints, enums, validations, associations and the unique indexes
and foreign keys discovered in the database.

With --fields it prints the flat field map instead: each field name mapped to
its type, plus <field>_enum_values and <field>_validations entries.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeTable, "table", "t", "", "Table to analyze (required)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "json", "Output format: json or yaml")
	analyzeCmd.Flags().BoolVar(&analyzeFields, "fields", false, "Print the flat field map instead of the schema bundle")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := requireFlag("table", analyzeTable); err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	model, err := sess.model(ctx, analyzeTable)
	if err != nil {
		return err
	}

	opts := schema.Options{IncludeTimestamps: sess.cfg.Generation.IncludeTimestamps}
	analyzer := schema.NewAnalyzer(model, sess.store, opts, sess.logger)

	if analyzeFields {
		fields := analyzer.ExtractFields(schema.ModeWithConstraints)
		return writeDocument(cmd.OutOrStdout(), models.FieldMap(models.ProjectFields(fields)), analyzeOutput)
	}
	return writeDocument(cmd.OutOrStdout(), analyzer.Analyze(ctx), analyzeOutput)
}

func writeDocument(w io.Writer, doc any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (expected json or yaml)", format)
	}
}
