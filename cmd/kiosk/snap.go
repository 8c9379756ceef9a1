package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facemood/internal/config"
	"github.com/saturnino-fabrica-de-software/facemood/internal/kiosk"
)

var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Take a single capture and print the face attributes as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.Auto.Enabled = false

		logger := config.NewLoggerTo(os.Stderr, env)
		k := newKiosk(cfg, logger)
		if err := k.Start(cmd.Context()); err != nil {
			return err
		}
		defer func() { _ = k.Stop() }()

		outcome, err := k.Capture(cmd.Context())
		if err != nil {
			return err
		}
		if outcome != kiosk.OutcomeMarked {
			return fmt.Errorf("capture: %s", outcome)
		}

		face, _ := k.LastResult()
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(face)
	},
}

func init() {
	rootCmd.AddCommand(snapCmd)
}
