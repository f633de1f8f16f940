package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"imagegrab/pkg/config"
	"imagegrab/pkg/deviantart"
	"imagegrab/pkg/filenamer"
	"imagegrab/pkg/generic"
	"imagegrab/pkg/handlers"
	"imagegrab/pkg/imgur"
	"imagegrab/pkg/local"
	"imagegrab/pkg/reddit"
	"imagegrab/pkg/ui"
)

var (
	redditAmount int
	noAlbums     bool
	albumFolders bool
	resolvePages bool
	mirror       bool
)

var redditCmd = &cobra.Command{
	Use:   "reddit <subreddit>",
	Short: "Download images linked from a subreddit listing",
	Long: `Download the images linked from the newest posts of one or more subreddits.

The query is a subreddit name, several names joined with '+', or a path such
as "wallpapers/top". Links to Imgur images and albums, DeviantArt pages and
direct image files are followed.`,
	Example: `  imagegrab reddit wallpapers
  imagegrab reddit earthporn+cityporn --amount 300 --min-width 1920
  imagegrab reddit pics --album-folders --aspect 16:9`,
	Args: cobra.ExactArgs(1),
	RunE: runReddit,
}

var imgurCmd = &cobra.Command{
	Use:   "imgur <album-url|account>",
	Short: "Download an Imgur album or every image of an account",
	Example: `  imagegrab imgur https://imgur.com/a/abc123
  imagegrab imgur someuser.imgur.com`,
	Args: cobra.ExactArgs(1),
	RunE: runImgur,
}

var deviantartCmd = &cobra.Command{
	Use:     "deviantart <user>",
	Short:   "Download the images of a DeviantArt gallery",
	Example: `  imagegrab deviantart someartist`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDeviantArt,
}

var localCmd = &cobra.Command{
	Use:   "local <directory>",
	Short: "Copy the images of a directory tree that pass the filters",
	Example: `  imagegrab local ~/Pictures --min-width 2560 --output ./wallpapers
  imagegrab local ~/Pictures --mirror`,
	Args: cobra.ExactArgs(1),
	RunE: runLocal,
}

func init() {
	rootCmd.AddCommand(redditCmd, imgurCmd, deviantartCmd, localCmd)

	redditCmd.Flags().IntVarP(&redditAmount, "amount", "n", reddit.DefaultAmount, "number of posts to request, at most 1000")
	redditCmd.Flags().BoolVar(&noAlbums, "no-albums", false, "skip posts linking to albums")
	redditCmd.Flags().BoolVar(&albumFolders, "album-folders", false, "save album images into a folder per post")
	redditCmd.Flags().BoolVar(&resolvePages, "resolve-pages", false, "look up the preview image of links that are not images")

	localCmd.Flags().BoolVar(&mirror, "mirror", false, "keep the source directory structure")
}

func runReddit(cmd *cobra.Command, args []string) error {
	query := args[0]
	extra := map[string]interface{}{}
	if cmd.Flags().Changed("no-albums") {
		extra["skip-albums"] = noAlbums
	}
	if cmd.Flags().Changed("album-folders") {
		extra["album-folders"] = albumFolders
	}
	if cmd.Flags().Changed("resolve-pages") {
		extra["resolve-pages"] = resolvePages
	}

	a, err := newApp(cmd, "reddit:"+query, extra)
	if err != nil {
		return err
	}
	cfg := a.cfg
	if cfg.Reddit.AppID == "" {
		return errors.New("no Reddit app id configured, run 'imagegrab auth set reddit'")
	}
	if cfg.Reddit.DeviceID == "" {
		cfg.Reddit.DeviceID = reddit.NewDeviceID()
		if err := persistDeviceID(cfg.Reddit.DeviceID); err != nil {
			a.log.WithError(err).Warn("Failed to save device id")
		}
	}

	imgurAPI := imgur.NewAPI(cfg, a.client, a.log)
	source := reddit.NewSource(cfg, a.client,
		imgurAPI,
		deviantart.NewSource(cfg, a.client, a.log),
		generic.NewPageResolver(cfg, a.client, a.log),
		reddit.NewTokenAcquirer(cfg, a.client, a.log),
		a.log)

	h := handlers.NewRedditHandler(source, a.runOptions(), a.log)
	allowNested := cfg.Filter.AllowAlbums && !cfg.Download.SkipAlbums
	listing := h.ParseSource(cmd.Context(), query, allowNested, redditAmount)
	h.FetchContent(cmd.Context(), listing, a.target(filenamer.Clean(strings.Trim(query, "/"))),
		handlers.NewRedditFilter(cfg.Filter), a.out, cfg.Download.AlbumFolders)

	return a.finish("r/" + query)
}

func runImgur(cmd *cobra.Command, args []string) error {
	src := args[0]
	a, err := newApp(cmd, "imgur:"+src, nil)
	if err != nil {
		return err
	}
	if a.cfg.Imgur.ClientID == "" {
		return errors.New("no Imgur client id configured, run 'imagegrab auth set imgur'")
	}

	folder := imgur.AccountName(src)
	if imgur.IsAlbumURL(src) {
		folder = imgur.AlbumID(src)
	}

	h := handlers.NewImgurHandler(imgur.NewAPI(a.cfg, a.client, a.log), a.runOptions(), a.log)
	coll := h.ParseSource(cmd.Context(), src)
	h.FetchContent(cmd.Context(), coll, a.target(filenamer.Clean(folder)), handlers.NewImageFilter(a.cfg.Filter), a.out)

	return a.finish(src)
}

func runDeviantArt(cmd *cobra.Command, args []string) error {
	src := args[0]
	a, err := newApp(cmd, "deviantart:"+src, nil)
	if err != nil {
		return err
	}

	h := handlers.NewDeviantArtHandler(deviantart.NewGallerySource(a.cfg, a.client, a.log), a.runOptions(), a.log)
	album := h.ParseSource(cmd.Context(), src)
	name := strings.Trim(strings.TrimPrefix(strings.TrimPrefix(src, "https://"), "http://"), "/")
	h.FetchContent(cmd.Context(), album, a.target(filenamer.Clean(name)), handlers.NewImageFilter(a.cfg.Filter), a.out)

	return a.finish(src)
}

func runLocal(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New(dir + " is not a directory")
	}

	extra := map[string]interface{}{}
	if cmd.Flags().Changed("mirror") {
		extra["mirror"] = mirror
	}
	a, err := newApp(cmd, "local:"+dir, extra)
	if err != nil {
		return err
	}

	h := handlers.NewLocalHandler(local.NewSource(a.cfg, a.log), a.runOptions(), a.log)
	contents := h.ParseSource(cmd.Context(), dir)
	h.FetchContent(cmd.Context(), contents, a.cfg.Output.BaseDirectory, handlers.NewImageFilter(a.cfg.Filter), a.out, a.cfg.Download.MirrorFolders)

	return a.finish(dir)
}

// persistDeviceID stores id in the config file so later runs reuse it. Only
// the file's own values are written back.
func persistDeviceID(id string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "imagegrab", "config.yaml")
	}

	fileCfg := config.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if err := fileCfg.LoadFromFile(path); err != nil {
			return err
		}
	}
	fileCfg.Reddit.DeviceID = id
	if err := fileCfg.Save(path); err != nil {
		return err
	}
	ui.PrintInfo("Saved Reddit device id to", path)
	return nil
}
