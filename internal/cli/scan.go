package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ScanResult summarizes a scan of the asset tree.
type ScanResult struct {
	Assets   int      `json:"assets"`
	Variants int      `json:"variants"`
	Assigned []string `json:"assigned,omitempty"`
	Removed  []string `json:"removed,omitempty"`
}

func (r ScanResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Indexed %d assets and %d variants\n", r.Assets, r.Variants)
	for _, p := range r.Assigned {
		fmt.Fprintf(&b, "  assigned GUID: %s\n", p)
	}
	for _, g := range r.Removed {
		fmt.Fprintf(&b, "  removed: %s\n", g)
	}
	return b.String()
}

// NewScanCommand creates the scan command.
func NewScanCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Index the asset tree",
		Long: `Walk the asset directory and bring the index in line with the files on
disk. Files without a GUID are given one. Every other command scans first,
so this is mostly useful to check a project for problems.

Exit codes:
  0 - Every file was indexed
  1 - Some files could not be indexed
  2 - Command error (bad configuration, etc.)

Examples:
  assetvariant scan
  assetvariant scan --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}
}

func runScan(cmd *cobra.Command, opts *RootOptions) error {
	f := newFormatter(cmd, opts)
	ws, err := openWorkspace(cmd.Context(), cmd, opts)
	if err != nil {
		return err
	}
	defer ws.Close()

	report := ws.report
	warnings := make([]string, 0, len(report.Problems))
	for _, p := range report.Problems {
		warnings = append(warnings, p.Error())
	}
	result := ScanResult{
		Assets:   report.Assets,
		Variants: report.Variants,
		Assigned: report.Assigned,
		Removed:  report.Removed,
	}
	if err := f.SuccessWithWarnings(result, warnings); err != nil {
		return err
	}
	if len(warnings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) could not be indexed", len(warnings)))
	}
	return nil
}
