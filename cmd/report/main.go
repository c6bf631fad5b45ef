// Command report classifies, validates and renders financial model JSON
// documents, and runs the full PDF pipeline from the command line.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"financial_report/pkg/logger"
	"financial_report/pkg/models"
)

// now is the report generation clock.
var now = time.Now

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "report",
		Short:         "Financial statement report toolkit",
		Long:          `Classify, validate and render KreditLab financial model JSON, or process statement PDFs end to end.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logLevel, "console")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newClassifyCmd(), newValidateCmd(), newCheckCmd(), newRenderCmd(), newProcessCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadDocument(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := models.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
