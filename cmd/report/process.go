package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"financial_report/pkg/config"
	"financial_report/pkg/core/agent"
	"financial_report/pkg/core/extract"
	"financial_report/pkg/core/llm"
	"financial_report/pkg/core/pipeline"
	"financial_report/pkg/core/prompt"
	"financial_report/pkg/core/transform"
	"financial_report/pkg/export/excel"
	"financial_report/pkg/logger"
)

func newProcessCmd() *cobra.Command {
	var (
		outDir     string
		configPath string
		withPDF    bool
		withXLSX   bool
	)
	cmd := &cobra.Command{
		Use:   "process PDF...",
		Short: "Extract, transform and render statement PDFs",
		Long:  `Runs Tensorlake extraction and the LLM transform on each PDF, then writes the model JSON and the HTML report (optionally Excel and PDF) to the output directory.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			orch, err := newOrchestrator(cfg)
			if err != nil {
				return err
			}

			var inputs []pipeline.Input
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				inputs = append(inputs, pipeline.Input{Filename: filepath.Base(path), Data: data})
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, br := range orch.ProcessMany(cmd.Context(), inputs, pipeline.Options{IncludePDF: withPDF}) {
				if br.Err != nil {
					failed++
					fmt.Fprintf(out, "FAILED  %s: %v\n", br.Filename, br.Err)
					continue
				}
				paths, err := writeResult(outDir, br.Result, withXLSX)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "OK      %s -> %s\n", br.Filename, strings.Join(paths, ", "))
				for _, w := range br.Result.Warnings {
					fmt.Fprintf(out, "        warning: %s\n", w)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(inputs))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "out", "Output directory")
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Settings file")
	cmd.Flags().BoolVar(&withPDF, "pdf", false, "Also write the PDF report")
	cmd.Flags().BoolVar(&withXLSX, "xlsx", false, "Also write the Excel workbook")
	return cmd
}

func newOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, error) {
	if err := prompt.LoadFromDirectory(cfg.PromptsDir); err != nil {
		logger.L.Warn().Err(err).Msg("[PROMPT] Prompt files not fully applied, built-ins kept for the rest")
	}
	p, err := llm.New(cfg.LLMProvider, cfg.LLMKey(), modelFor(cfg), cfg.MaxTokens)
	if err != nil {
		return nil, err
	}
	var agentCfg agent.Config
	if data, err := os.ReadFile("config/models.yaml"); err == nil {
		_ = yaml.Unmarshal(data, &agentCfg)
	}
	agentCfg.ActiveProvider = cfg.LLMProvider
	mgr := agent.NewManager(agentCfg, map[string]llm.Provider{cfg.LLMProvider: p})

	orch := pipeline.NewOrchestrator(
		extract.NewClient(cfg.TensorlakeAPIKey, cfg.TensorlakeBaseURL),
		transform.New(mgr, prompt.Get()),
	)
	orch.MaxParallel = cfg.MaxParallel
	return orch, nil
}

func modelFor(cfg *config.Config) string {
	if cfg.LLMProvider == "gemini" {
		return cfg.GeminiModel
	}
	return cfg.AnthropicModel
}

// writeResult stores every artifact of a run under dir, named after the
// source file.
func writeResult(dir string, res *pipeline.Result, withXLSX bool) ([]string, error) {
	stem := strings.TrimSuffix(res.Filename, filepath.Ext(res.Filename))
	files := map[string][]byte{
		stem + ".json": res.Document.Bytes(),
		stem + ".html": []byte(res.HTML),
	}
	if res.PDF != nil {
		files[stem+".pdf"] = res.PDF
	}
	if withXLSX {
		data, err := excel.Render(res.Report)
		if err != nil {
			return nil, err
		}
		files[stem+".xlsx"] = data
	}

	var paths []string
	for _, name := range []string{stem + ".json", stem + ".html", stem + ".pdf", stem + ".xlsx"} {
		data, ok := files[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
