// File: cmd/extract.go
package cmd

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/jobprobe/internal/browser/snapshot"
	"github.com/xkilldash9x/jobprobe/internal/careers"
)

const defaultSnapshotBase = "https://insiderone.com/careers/open-positions/"

// newExtractCmd creates the `extract` command, which reads job cards from a
// saved open positions page.
func newExtractCmd() *cobra.Command {
	var (
		htmlPath string
		baseURL  string
		format   string
		all      bool
	)

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extracts matching job candidates from a saved open positions page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Output().Format
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported output format: %s", format)
			}

			d, err := snapshot.LoadFile(htmlPath, baseURL)
			if err != nil {
				return err
			}

			pred := careers.MatchesQAIstanbul
			if all {
				pred = func(careers.Candidate) careers.Match { return careers.Match{Title: true, Department: true, Location: true} }
			}
			found := careers.ExtractMatchingCandidates(ctx, d, careers.OpenPositionsCards(), pred)
			return writeCandidates(cmd.OutOrStdout(), format, found)
		},
	}

	extractCmd.Flags().StringVar(&htmlPath, "html", "", "Path to the saved HTML page")
	extractCmd.Flags().StringVar(&baseURL, "base-url", defaultSnapshotBase, "URL the page was saved from, used to resolve relative links")
	extractCmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text or json (default from config)")
	extractCmd.Flags().BoolVar(&all, "all", false, "List every card instead of only Quality Assurance roles in Istanbul")
	_ = extractCmd.MarkFlagRequired("html")
	return extractCmd
}

func writeCandidates(w io.Writer, format string, found []careers.Candidate) error {
	if format == "json" {
		if found == nil {
			found = []careers.Candidate{}
		}
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(found, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode candidates: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	if len(found) == 0 {
		_, err := fmt.Fprintln(w, "no matching candidates")
		return err
	}
	for _, c := range found {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.SourceIndex, c.Title, c.Department, c.Location, c.ActionReference); err != nil {
			return err
		}
	}
	return nil
}
