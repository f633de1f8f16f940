package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"

	"imagegrab/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	configFile string
	logLevel   string
	outputDir  string
	aspect     string
	workers    int
	minWidth   int
	minHeight  int
	allowNSFW  bool
	quiet      bool
	notify     bool
)

var rootCmd = &cobra.Command{
	Use:   "imagegrab",
	Short: "Download images from Reddit, Imgur, DeviantArt and local folders",
	Long: `imagegrab collects images from a content source, filters them by size,
aspect ratio and content flags, and saves the ones that pass.

Sources:
  reddit      subreddit listings, following links to Imgur, DeviantArt and direct images
  imgur       albums and account uploads
  deviantart  a user's gallery feed
  local       image files under a directory`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetQuiet(quiet)
	},
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("Error", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default: first of ./imagegrab.yaml, ~/.config/imagegrab/config.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	pf.StringVarP(&outputDir, "output", "o", "", "base directory for saved images")
	pf.IntVarP(&workers, "workers", "w", 0, "number of images fetched concurrently")
	pf.IntVar(&minWidth, "min-width", 0, "skip images narrower than this")
	pf.IntVar(&minHeight, "min-height", 0, "skip images shorter than this")
	pf.StringVar(&aspect, "aspect", "", "only keep images with this aspect ratio, e.g. 16:9")
	pf.BoolVar(&allowNSFW, "nsfw", false, "keep posts marked as adult content")
	pf.BoolVarP(&quiet, "quiet", "q", false, "print errors only")
	pf.BoolVar(&notify, "notify", false, "send a desktop notification when a download finishes")

	rootCmd.SetVersionTemplate(`imagegrab {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// commandFlags collects the flags set on the command line into the map
// understood by config.Load. Unset flags are left out so they do not
// override the file or environment.
func commandFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	if fs.Changed("output") {
		flags["output"] = outputDir
	}
	if fs.Changed("workers") {
		flags["workers"] = workers
	}
	if fs.Changed("min-width") {
		flags["min-width"] = minWidth
	}
	if fs.Changed("min-height") {
		flags["min-height"] = minHeight
	}
	if fs.Changed("aspect") {
		flags["aspect"] = aspect
	}
	if fs.Changed("nsfw") {
		flags["nsfw"] = allowNSFW
	}
	if fs.Changed("log-level") {
		flags["log-level"] = logLevel
	} else if quiet {
		flags["log-level"] = "error"
	}
	return flags
}
