package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gstfiling/internal/domain"
	"gstfiling/internal/filing"
	"gstfiling/internal/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate <filing.json>",
	Short: "Run the comprehensive pre-filing check on a filing snapshot",
	Long: `Reads a filing as returned by GET /api/v1/filings/:gstin/:period and
re-runs every profile, period, return and reconciliation check against it.
The result is printed as JSON. The command fails when the filing could not
be filed as it stands.`,
	Example: `  gstcheck validate filing.json
  gstcheck validate filing.json --filed 04-2025,05-2025`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, err := newMachine(cmd)
		if err != nil {
			return err
		}
		filed, _ := cmd.Flags().GetStringSlice("filed")
		return runValidate(cmd.OutOrStdout(), machine, args[0], filed)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringSlice("filed", nil, "Periods already filed by this GSTIN (MM-YYYY)")
}

func runValidate(out io.Writer, machine *filing.Machine, path string, filed []string) error {
	log := logger.WithComponent("validate")

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read filing: %w", err)
	}
	var f domain.Filing
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("decode filing: %w", err)
	}

	res := machine.ValidateComplete(&f, filed)
	log.Info().Str("gstin", f.GSTIN).Str("period", f.Period).
		Int("blockers", len(res.Errors)).Int("warnings", len(res.Warnings)).
		Msg("validated")

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if !res.CanFile {
		return fmt.Errorf("filing %s %s cannot be filed: %d blocking error(s)", f.GSTIN, f.Period, len(res.Errors))
	}
	return nil
}
