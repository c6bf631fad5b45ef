package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financial_report/pkg/core/schema"
	"financial_report/pkg/core/validate"
	"financial_report/pkg/export"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify FILE",
		Short: "Print the schema generation of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), schema.Classify(doc.Node))
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a document against the rules of its schema",
		Long:  `Lists hard errors and warnings. Exits non-zero when the document has errors.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			tag := schema.Classify(doc.Node)
			res := validate.Validate(doc.Node, tag)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Schema: %s\n", tag)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "ERROR   %s\n", e)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "WARNING %s\n", w)
			}
			if err := res.Err(); err != nil {
				return err
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	var tolerance float64
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Reconcile Assets = Liabilities + Equity per period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			tag := schema.Classify(doc.Node)
			out := cmd.OutOrStdout()

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "Period\tAssets\tLiabilities\tEquity\tDifference\tStatus\t")
			for _, c := range validate.Reconcile(doc.Node, tag, tolerance) {
				status := "OK"
				if !c.IsBalanced {
					status = "MISMATCH"
				}
				fmt.Fprintf(tw, "%s\t%.0f\t%.0f\t%.0f\t%.2f\t%s\t\n",
					c.Label, c.TotalAssets, c.TotalLiabilities, c.TotalEquity, c.Difference, status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, issue := range validate.CheckIntegrity(doc.Node, tag) {
				fmt.Fprintf(out, "Reported: %s\n", issue)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&tolerance, "tolerance", validate.DefaultTolerance, "Allowed absolute difference")
	return cmd
}

// defaultOut names the output file when --out is not given.
func defaultOut(company, ext string) string {
	return export.Filename(company, now(), ext)
}
