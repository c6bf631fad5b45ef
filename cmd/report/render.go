package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"financial_report/pkg/core/render"
	"financial_report/pkg/export/excel"
	"financial_report/pkg/export/html"
	"financial_report/pkg/export/pdf"
	"financial_report/pkg/logger"
)

type renderOpts struct {
	format   string
	out      string
	theme    string
	expanded bool
}

func newRenderCmd() *cobra.Command {
	var o renderOpts
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a document as HTML, Excel or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			rep, err := render.BuildReportAt(doc.Node, now())
			if err != nil {
				return err
			}
			data, err := renderFormat(rep, o)
			if err != nil {
				return err
			}
			path := o.out
			if path == "" {
				path = defaultOut(rep.Header.CompanyName, o.format)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			logger.L.Info().Str("path", path).Int("bytes", len(data)).Msg("[CLI] Report written")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&o.format, "format", "f", "html", "Output format: html, xlsx or pdf")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Output path (default {company}_Financial_Analysis_{date}.{ext})")
	cmd.Flags().StringVar(&o.theme, "theme", "light", "HTML theme: light or dark")
	cmd.Flags().BoolVar(&o.expanded, "expanded", false, "Open every HTML section")
	return cmd
}

func renderFormat(rep *render.Report, o renderOpts) ([]byte, error) {
	switch o.format {
	case "html":
		theme := html.Light
		if o.theme == string(html.Dark) {
			theme = html.Dark
		}
		s, err := html.Render(rep, html.Options{Theme: theme, Expanded: o.expanded})
		return []byte(s), err
	case "xlsx":
		return excel.Render(rep)
	case "pdf":
		return pdf.Render(rep)
	}
	return nil, fmt.Errorf("unknown format %q (want html, xlsx or pdf)", o.format)
}
