package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for imagegrab
type Config struct {
	Imgur      ImgurConfig      `yaml:"imgur" json:"imgur"`
	Reddit     RedditConfig     `yaml:"reddit" json:"reddit"`
	DeviantArt DeviantArtConfig `yaml:"deviantart" json:"deviantart"`
	GitHub     GitHubConfig     `yaml:"github" json:"github"`
	HTTP       HTTPConfig       `yaml:"http" json:"http"`
	Download   DownloadConfig   `yaml:"download" json:"download"`
	Filter     FilterConfig     `yaml:"filter" json:"filter"`
	Output     OutputConfig     `yaml:"output" json:"output"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// ImgurConfig holds image host API settings
type ImgurConfig struct {
	ClientID string `yaml:"client_id" json:"client_id"`
	APIBase  string `yaml:"api_base" json:"api_base"`
}

// RedditConfig holds listing API and OAuth settings
type RedditConfig struct {
	AppID     string `yaml:"app_id" json:"app_id"`
	DeviceID  string `yaml:"device_id" json:"device_id"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	APIBase   string `yaml:"api_base" json:"api_base"`
	AuthURL   string `yaml:"auth_url" json:"auth_url"`
}

// DeviantArtConfig holds oEmbed and gallery feed settings
type DeviantArtConfig struct {
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	OEmbedURL string `yaml:"oembed_url" json:"oembed_url"`
	FeedURL   string `yaml:"feed_url" json:"feed_url"`
}

// GitHubConfig holds release check settings
type GitHubConfig struct {
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
	ReleasesURL string `yaml:"releases_url" json:"releases_url"`
}

// HTTPConfig holds transport settings shared by all clients
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int           `yaml:"burst" json:"burst"`
}

// DownloadConfig holds download pipeline settings
type DownloadConfig struct {
	Workers        int           `yaml:"workers" json:"workers"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	Extensions     []string      `yaml:"extensions" json:"extensions"`
	FallbackWidth  int           `yaml:"fallback_width" json:"fallback_width"`
	FallbackHeight int           `yaml:"fallback_height" json:"fallback_height"`
	AlbumFolders   bool          `yaml:"album_folders" json:"album_folders"`
	SkipAlbums     bool          `yaml:"skip_albums" json:"skip_albums"`
	ResolvePages   bool          `yaml:"resolve_pages" json:"resolve_pages"`
	MirrorFolders  bool          `yaml:"mirror_folders" json:"mirror_folders"`
}

// FilterConfig holds the image filter applied before saving
type FilterConfig struct {
	MinWidth     int  `yaml:"min_width" json:"min_width"`
	MinHeight    int  `yaml:"min_height" json:"min_height"`
	AspectWidth  int  `yaml:"aspect_width" json:"aspect_width"`
	AspectHeight int  `yaml:"aspect_height" json:"aspect_height"`
	AllowNSFW    bool `yaml:"allow_nsfw" json:"allow_nsfw"`
	AllowAlbums  bool `yaml:"allow_albums" json:"allow_albums"`
}

// OutputConfig holds output locations
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	HistoryFile   string `yaml:"history_file" json:"history_file"`
	Manifest      bool   `yaml:"manifest" json:"manifest"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultExtensions is the allow-list used when none is configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Imgur: ImgurConfig{
			APIBase: "https://api.imgur.com/3",
		},
		Reddit: RedditConfig{
			UserAgent: "imagegrab/1.0 (image downloader)",
			APIBase:   "https://oauth.reddit.com/r/",
			AuthURL:   "https://www.reddit.com/api/v1/access_token",
		},
		DeviantArt: DeviantArtConfig{
			UserAgent: "imagegrab/1.0 (image downloader)",
			OEmbedURL: "https://backend.deviantart.com/oembed",
			FeedURL:   "https://backend.deviantart.com/rss.xml",
		},
		GitHub: GitHubConfig{
			UserAgent:   "imagegrab",
			ReleasesURL: "https://api.github.com/repos/imagegrab/imagegrab/releases",
		},
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             8,
		},
		Download: DownloadConfig{
			Workers:    8,
			Timeout:    60 * time.Second,
			Extensions: append([]string(nil), DefaultExtensions...),
		},
		Filter: FilterConfig{
			AllowNSFW:   false,
			AllowAlbums: true,
		},
		Output: OutputConfig{
			BaseDirectory: "./downloads",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// IsSupportedExtension reports whether ext (with leading period) is in the
// allow-list. The comparison ignores case.
func (d DownloadConfig) IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	if ext == "" {
		return false
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	for _, allowed := range d.Extensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("IMAGEGRAB_IMGUR_CLIENT_ID"); v != "" {
		c.Imgur.ClientID = v
	}
	if v := os.Getenv("IMAGEGRAB_REDDIT_APP_ID"); v != "" {
		c.Reddit.AppID = v
	}
	if v := os.Getenv("IMAGEGRAB_REDDIT_DEVICE_ID"); v != "" {
		c.Reddit.DeviceID = v
	}
	if v := os.Getenv("IMAGEGRAB_USER_AGENT"); v != "" {
		c.Reddit.UserAgent = v
		c.DeviantArt.UserAgent = v
	}
	if v := os.Getenv("IMAGEGRAB_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("IMAGEGRAB_HISTORY_FILE"); v != "" {
		c.Output.HistoryFile = v
	}
	if v := os.Getenv("IMAGEGRAB_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid IMAGEGRAB_WORKERS: %w", err)
		}
		if n > 0 {
			c.Download.Workers = n
		}
	}
	if v := os.Getenv("IMAGEGRAB_EXTENSIONS"); v != "" {
		var exts []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
		c.Download.Extensions = exts
	}
	if v := os.Getenv("IMAGEGRAB_ALLOW_NSFW"); v != "" {
		c.Filter.AllowNSFW = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("IMAGEGRAB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IMAGEGRAB_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"imagegrab.yaml",
		".imagegrab.yaml",
		".imagegrab.yml",
		filepath.Join(home, ".config", "imagegrab", "config.yaml"),
		filepath.Join(home, ".imagegrab.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("download workers must be positive"))
	}
	if c.Download.Workers > 32 {
		errs = append(errs, errors.New("download workers should not exceed 32"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if len(c.Download.Extensions) == 0 {
		errs = append(errs, errors.New("at least one supported extension is required"))
	}
	for _, ext := range c.Download.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("extension %q must start with a period", ext))
		}
	}
	if c.Download.FallbackWidth < 0 || c.Download.FallbackHeight < 0 {
		errs = append(errs, errors.New("fallback dimensions cannot be negative"))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if c.HTTP.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}

	if c.Filter.MinWidth < 0 || c.Filter.MinHeight < 0 {
		errs = append(errs, errors.New("minimum dimensions cannot be negative"))
	}
	if (c.Filter.AspectWidth == 0) != (c.Filter.AspectHeight == 0) {
		errs = append(errs, errors.New("aspect ratio needs both width and height"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Download.Workers = v
	}
	if v, ok := flags["min-width"].(int); ok && v > 0 {
		c.Filter.MinWidth = v
	}
	if v, ok := flags["min-height"].(int); ok && v > 0 {
		c.Filter.MinHeight = v
	}
	if v, ok := flags["aspect"].(string); ok && v != "" {
		if w, h, err := ParseAspect(v); err == nil {
			c.Filter.AspectWidth, c.Filter.AspectHeight = w, h
		}
	}
	if v, ok := flags["nsfw"].(bool); ok {
		c.Filter.AllowNSFW = v
	}
	if v, ok := flags["album-folders"].(bool); ok {
		c.Download.AlbumFolders = v
	}
	if v, ok := flags["skip-albums"].(bool); ok {
		c.Download.SkipAlbums = v
	}
	if v, ok := flags["mirror"].(bool); ok {
		c.Download.MirrorFolders = v
	}
	if v, ok := flags["resolve-pages"].(bool); ok {
		c.Download.ResolvePages = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// ParseAspect parses a "W:H" aspect ratio string
func ParseAspect(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("aspect ratio %q must look like 16:9", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid aspect width: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid aspect height: %w", err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("aspect ratio %q must be positive", s)
	}
	return w, h, nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment (including .env) > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".imagegrab.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
