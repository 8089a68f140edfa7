package cli

import (
	"context"
	"errors"
	"fmt"

	"ai-qa-rag-be/pkg/rag/settings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedForce bool

var seedSettingsCmd = &cobra.Command{
	Use:   "seed-settings",
	Short: "Write default tuning settings to the database",
	Long: `Creates the ai_configurations rows read by the QA pipeline. Existing rows are
kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runSeedSettings,
}

func init() {
	seedSettingsCmd.Flags().BoolVar(&seedForce, "force", false, "overwrite existing values")
	rootCmd.AddCommand(seedSettingsCmd)
}

func runSeedSettings(cmd *cobra.Command, args []string) error {
	if services.Settings == nil {
		return errors.New("settings store not configured")
	}
	ctx := context.Background()
	out := cmd.OutOrStdout()

	var created, updated, kept int
	for _, entry := range settings.SeedEntries(services.SettingsDefaults) {
		existing, err := services.Settings.FindConfigurationByKey(ctx, entry.Key)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", entry.Key, err)
		}

		switch {
		case existing == nil:
			if err := services.Settings.CreateConfiguration(ctx, entry); err != nil {
				return fmt.Errorf("create %s: %w", entry.Key, err)
			}
			created++
			color.New(color.FgGreen).Fprintf(out, "+ %s = %s\n", entry.Key, entry.Value)
		case seedForce:
			existing.Value = entry.Value
			existing.ValueType = entry.ValueType
			existing.Description = entry.Description
			existing.Category = entry.Category
			if err := services.Settings.UpdateConfiguration(ctx, existing); err != nil {
				return fmt.Errorf("update %s: %w", entry.Key, err)
			}
			updated++
			color.New(color.FgYellow).Fprintf(out, "~ %s = %s\n", entry.Key, entry.Value)
		default:
			kept++
			fmt.Fprintf(out, "  %s = %s (kept)\n", existing.Key, existing.Value)
		}
	}

	fmt.Fprintf(out, "Settings seeded: %d created, %d updated, %d kept\n", created, updated, kept)
	return nil
}
