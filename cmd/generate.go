package cmd

import (
	"encoding/json"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-faker/pkg/llm"
	"github.com/ekaya-inc/ekaya-faker/pkg/models"
	"github.com/ekaya-inc/ekaya-faker/pkg/services"
)

var (
	generateTable     string
	generateCount     int
	generateRelations bool
	generatePrint     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate fake records for a table and save them",
	Long: `Generate asks the configured AI provider for --count records for --table
and writes whatever it returns in a single transaction. With --relations,
belongs-to columns are filled with identifiers sampled from the referenced
tables.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateTable, "table", "t", "", "Table to populate (required)")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 10, "Number of records to request")
	generateCmd.Flags().BoolVar(&generateRelations, "relations", false, "Fill foreign keys from existing rows")
	generateCmd.Flags().BoolVar(&generatePrint, "print", false, "Print the saved records as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := requireFlag("table", generateTable); err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	provider, err := llm.NewProvider(sess.cfg, sess.logger)
	if err != nil {
		return err
	}

	model, err := sess.model(ctx, generateTable)
	if err != nil {
		return err
	}

	strategy := models.StrategySimple
	if generateRelations {
		strategy = models.StrategyRelations
	}

	color.Cyan("Generating %d %s records with %s (%s)...", generateCount, model.TableName, provider.Name(), provider.Model())

	svc := services.NewGenerationService(provider, sess.store, sess.cfg.Generation, sess.logger)
	saved, err := svc.Run(ctx, strategy, model, generateCount)
	if err != nil {
		return err
	}

	if len(saved) != generateCount {
		color.Yellow("Provider returned %d of %d requested records", len(saved), generateCount)
	}
	color.Green("Saved %d records to %s", len(saved), model.TableName)

	if generatePrint {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(saved)
	}
	return nil
}
