package app

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/rfreconcile/pkg/constants"
)

// NewRunCommand creates the run command.
func (a *App) NewRunCommand() *cobra.Command {
	var fillBlanks bool
	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Reconcile anomalous sites and write the corrected workbook",
		Long: `Run reconciles every station listed in the anomalous-stations workbook.

The corrected workbook, the correction report and the validation report
are written with a shared timestamp prefix. With --fill-blanks the
corrected workbook is also completed from the other sheets, the template
and the physical-parameters baseline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.Run(cmd.Context(), RunOptions{FillBlanks: fillBlanks})
			return err
		},
	}
	cmd.Flags().BoolVar(&fillBlanks, "fill-blanks", false, "complete blank owner, type and tx_type fields after correcting")
	return cmd
}

// NewFillBlanksCommand creates the fill-blanks command.
func (a *App) NewFillBlanksCommand() *cobra.Command {
	var opts FillOptions
	cmd := &cobra.Command{
		Use:     "fill-blanks",
		GroupID: "core",
		Short:   "Fill blank structure_owner, structure_type and tx_type fields",
		Example: `  rfreconcile fill-blanks --input corrected.xlsx
  rfreconcile fill-blanks -i corrected.xlsx --report-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Output == "" {
				opts.Output = FilledName(opts.Input)
			}
			_, err := a.FillBlanks(opts)
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "workbook to complete")
	cmd.Flags().StringVar(&opts.Output, "output", "", "output workbook (default adds _filled to the input name)")
	cmd.Flags().BoolVar(&opts.ReportOnly, "report-only", false, "only report blank fields, do not modify anything")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// NewValidateCommand creates the validate command.
func (a *App) NewValidateCommand() *cobra.Command {
	var opts ValidateOptions
	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "core",
		Short:   "Compare data quality of an original and a corrected workbook",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.Validate(opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.Original, "original", "", "original physical-parameters workbook")
	cmd.Flags().StringVar(&opts.Corrected, "corrected", "", "corrected workbook")
	cmd.Flags().StringVar(&opts.Output, "output", "", "validation report path (default in the reports directory)")
	_ = cmd.MarkFlagRequired("original")
	_ = cmd.MarkFlagRequired("corrected")
	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		GroupID: "utility",
		Short:   "Show version information",
		Args:    cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			w := a.stdout
			fmt.Fprintf(w, "rfreconcile version %s\n", a.version)
			fmt.Fprintf(w, "commit: %s\n", a.commit)
			fmt.Fprintf(w, "built: %s\n", a.date)
			fmt.Fprintf(w, "built by: %s\n", a.builtBy)
			fmt.Fprintf(w, "go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// FilledName derives the default fill-blanks output path from input.
func FilledName(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_filled" + constants.WorkbookExtension
}
