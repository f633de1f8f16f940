package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"imagegrab/pkg/auth"
	"imagegrab/pkg/config"
	"imagegrab/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage imagegrab configuration files.

Configuration is resolved from, in order of priority:
  - Command line flags
  - Environment variables (IMAGEGRAB_*, also read from .env)
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write the default configuration to 'imagegrab.yaml' in the current
directory, or to the path given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration with identifiers masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for invalid values",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "imagegrab.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Register the API identifiers with 'imagegrab auth set imgur' and 'imagegrab auth set reddit'")
	fmt.Println("2. Run 'imagegrab config validate' to check the file")
	fmt.Println("3. Start downloading, e.g. 'imagegrab reddit wallpapers'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return err
	}
	if manager, err := auth.NewManager(); err == nil {
		manager.Apply(cfg)
	}

	display := *cfg
	display.Imgur.ClientID = maskedID(auth.ServiceImgur, cfg.Imgur.ClientID)
	display.Reddit.AppID = maskedID(auth.ServiceReddit, cfg.Reddit.AppID)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	fmt.Println()
	ui.PrintInfo("Configuration file", source)
	return nil
}

func maskedID(service, id string) string {
	if id == "" {
		return ""
	}
	return auth.SanitizeCredential(&auth.Credential{Service: service, ClientID: id}).ClientID
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		return errors.New("no configuration file found, specify one with --config")
	}

	ui.PrintInfo("Validating configuration", path)

	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration has errors")
		for _, e := range unjoin(err) {
			fmt.Printf("  - %s\n", e)
		}
		return errors.New("configuration is invalid")
	}

	var warnings []string
	if cfg.Imgur.ClientID == "" {
		warnings = append(warnings, "imgur.client_id is empty, Imgur sources need 'imagegrab auth set imgur'")
	}
	if cfg.Reddit.AppID == "" {
		warnings = append(warnings, "reddit.app_id is empty, Reddit sources need 'imagegrab auth set reddit'")
	}
	for _, w := range warnings {
		ui.PrintWarning(w)
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Workers: %d\n", cfg.Download.Workers)
	fmt.Printf("  Extensions: %v\n", cfg.Download.Extensions)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
