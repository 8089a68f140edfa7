package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/pkg/rag/answer"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	askDebug   bool
	askJSON    bool
	askSession string
	askTags    []string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question",
	Long: `Answers a question the way the API does: a curated answer when one is a
near-duplicate, otherwise a generated answer grounded on retrieved documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askDebug, "debug", false, "include retrieval diagnostics")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the raw response as JSON")
	askCmd.Flags().StringVar(&askSession, "session", "", "session id for usage tracking")
	askCmd.Flags().StringSliceVar(&askTags, "tag", nil, "tag filter, repeatable")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if services.Asker == nil {
		return errors.New("qa service not configured")
	}

	res, err := services.Asker.Ask(context.Background(), &dto.AskRequest{
		Question:  args[0],
		Debug:     askDebug,
		SessionId: askSession,
		Tags:      askTags,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printAnswer(cmd, res)
	return nil
}

func sourceColor(sourceType string) *color.Color {
	switch sourceType {
	case answer.SourceDatabase:
		return color.New(color.FgGreen, color.Bold)
	case answer.SourceRAG:
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}

func printAnswer(cmd *cobra.Command, res *dto.AskResponse) {
	out := cmd.OutOrStdout()

	color.New(color.Bold).Fprintln(out, res.Title)
	sourceColor(res.Source.Type).Fprintf(out, "[%s] confidence %s\n", res.Source.Label, res.Source.Confidence)
	fmt.Fprintln(out)
	fmt.Fprintln(out, res.Answer)

	if len(res.References) > 0 {
		fmt.Fprintln(out)
		color.New(color.Faint).Fprintln(out, "References:")
		for i, ref := range res.References {
			line := fmt.Sprintf("  [%d] %s", i+1, ref.Title)
			if ref.Section != "" {
				line += " > " + ref.Section
			}
			if ref.Score != nil {
				line += fmt.Sprintf(" (%.2f)", *ref.Score)
			}
			fmt.Fprintln(out, line)
		}
	}

	if res.DebugInfo != nil {
		fmt.Fprintln(out)
		color.New(color.Faint).Fprintf(out, "debug: chunks=%d fallback=%t timings=%s\n",
			len(res.DebugInfo.RetrievedChunks), res.DebugInfo.Fallback, formatTimings(res.DebugInfo.TimingsMs))
	}
}

func formatTimings(t map[string]int64) string {
	if len(t) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(t))
	for _, k := range []string{"embed", "curated_search", "retrieval", "generation", "total"} {
		if v, ok := t[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%dms", k, v))
		}
	}
	return strings.Join(parts, " ")
}
