package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hirelens-backend/internal/extract"
	"hirelens-backend/internal/fields"
)

const app = "hirelensctl"

// Actual version can be specified in build command.
var version = "unknown"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           app,
		Short:         "hirelensctl parses and scores resumes and manages the database schema and recruiter tokens",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newParseCmd(),
		newScoreCmd(),
		newMigrateCmd(),
		newTokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
			},
		},
	)
	return root
}

// parseFile runs extraction on a local resume file.
func parseFile(ctx context.Context, path string) (fields.FieldSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fields.FieldSet{}, fmt.Errorf("read %s: %w", path, err)
	}
	text, err := extract.Extract(ctx, data, filepath.Base(path))
	if err != nil {
		return fields.FieldSet{}, err
	}
	return fields.Extract(text), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
