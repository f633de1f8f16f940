// Package update checks the project's GitHub releases for a newer version.
package update

import (
	"context"
	"strconv"
	"strings"

	"imagegrab/pkg/apiclient"
	"imagegrab/pkg/config"
	"imagegrab/pkg/logger"
)

// Release is the subset of a GitHub release used by the checker.
type Release struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	HTMLURL    string `json:"html_url"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// Checker compares the running version with published releases.
type Checker struct {
	client      *apiclient.Client
	releasesURL string
	userAgent   string
	current     string
	logger      logger.Logger
}

func NewChecker(cfg *config.Config, client *apiclient.Client, current string, log logger.Logger) *Checker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Checker{
		client:      client,
		releasesURL: cfg.GitHub.ReleasesURL,
		userAgent:   cfg.GitHub.UserAgent,
		current:     current,
		logger:      log.WithField("component", "update"),
	}
}

// Check returns true and the release tag for the first published release,
// in the order GitHub lists them, that is newer than the running version.
// Drafts and pre-releases are ignored. Any failure to list releases means
// no update.
func (c *Checker) Check(ctx context.Context) (bool, string) {
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if c.userAgent != "" {
		headers["User-Agent"] = c.userAgent
	}

	var releases []Release
	if _, _, err := c.client.GetJSON(ctx, c.releasesURL, headers, &releases); err != nil {
		c.logger.DebugWithFields("release check failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false, ""
	}

	current := ParseVersion(c.current)
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		if Newer(ParseVersion(r.TagName), current) {
			return true, r.TagName
		}
	}
	return false, ""
}

// Version is a major.minor.patch triple.
type Version struct {
	Major, Minor, Patch int
}

// ParseVersion reads "v1.2.3" or "1.2.3". Missing or non-numeric parts are
// zero, so "1.2.3-beta" parses as 1.2.0.
func ParseVersion(s string) Version {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.SplitN(s, ".", 3)

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err == nil {
			nums[i] = n
		}
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}
}

// Newer reports whether a is a later version than b.
func Newer(a, b Version) bool {
	if a.Major != b.Major {
		return a.Major > b.Major
	}
	if a.Minor != b.Minor {
		return a.Minor > b.Minor
	}
	return a.Patch > b.Patch
}
