package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-faker/pkg/prompts"
	"github.com/ekaya-inc/ekaya-faker/pkg/schema"
)

var (
	promptTable string
	promptCount int
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the generation prompt for a table without calling the provider",
	RunE:  runPrompt,
}

func init() {
	promptCmd.Flags().StringVarP(&promptTable, "table", "t", "", "Table to build the prompt for (required)")
	promptCmd.Flags().IntVarP(&promptCount, "count", "n", 10, "Record count to put in the prompt")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	if err := requireFlag("table", promptTable); err != nil {
		return err
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	model, err := sess.model(ctx, promptTable)
	if err != nil {
		return err
	}

	gen := sess.cfg.Generation
	mode := schema.ModeBasic
	if gen.UseValidations {
		mode = schema.ModeWithConstraints
	}
	fields := schema.NewAnalyzer(model, sess.store, schema.Options{IncludeTimestamps: gen.IncludeTimestamps}, sess.logger).ExtractFields(mode)

	fmt.Fprintln(cmd.OutOrStdout(), prompts.FakeDataSystemMessage)
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), prompts.NewBuilder(gen).Build(model.TableName, fields, promptCount))
	return nil
}
