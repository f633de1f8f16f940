package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"imagegrab/pkg/apiclient"
	apperrors "imagegrab/pkg/errors"
	"imagegrab/pkg/imgur"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/ui"
	"imagegrab/pkg/update"
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show the remaining Imgur API quota",
	Long: `Query the Imgur credits endpoint and print the client-wide and per-user
request counters. Querying does not consume quota.`,
	Args: cobra.NoArgs,
	RunE: runLimits,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check whether a newer release is available",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(limitsCmd, updateCmd)
}

func runLimits(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if cfg.Imgur.ClientID == "" {
		return errors.New("no Imgur client id configured, run 'imagegrab auth set imgur'")
	}

	log := logger.GetLogger().WithField("command", "limits")
	api := imgur.NewAPI(cfg, apiclient.NewClient(cfg, log), log)

	info, err := api.LimitInfo(cmd.Context())
	if apperrors.Is(err, apperrors.ErrInvalidClientID) {
		return fmt.Errorf("imgur rejected the client id: %w", err)
	}
	if err != nil {
		ui.PrintWarning("Imgur quota is unavailable", err)
	}

	ui.PrintHighlight("Imgur quota")
	ui.PrintInfo("Client", quota(info.ClientRemaining, info.ClientLimit))
	ui.PrintInfo("User", quota(info.UserRemaining, info.UserLimit))
	return nil
}

// quota formats remaining/limit, showing "unknown" for counters the API did
// not report.
func quota(remaining, limit int) string {
	if remaining < 0 || limit < 0 {
		return "unknown"
	}
	return strconv.Itoa(remaining) + "/" + strconv.Itoa(limit)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	log := logger.GetLogger().WithField("command", "update")
	checker := update.NewChecker(cfg, apiclient.NewClient(cfg, log), version, log)

	available, latest := checker.Check(cmd.Context())
	if !available {
		ui.PrintSuccess("imagegrab " + version + " is up to date")
		return nil
	}
	ui.PrintHighlight("A new release is available")
	ui.PrintInfo("Current", version)
	ui.PrintInfo("Latest", latest)
	return nil
}
