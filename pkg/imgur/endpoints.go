package imgur

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the v3 API root.
	DefaultBaseURL = "https://api.imgur.com/3"

	// AccountPageSize is the number of images per account listing page.
	AccountPageSize = 50
)

func creditsURL(base string) string {
	return strings.TrimRight(base, "/") + "/credits"
}

func albumURL(base, id string) string {
	return fmt.Sprintf("%s/album/%s", strings.TrimRight(base, "/"), url.PathEscape(id))
}

func imageURL(base, id string) string {
	return fmt.Sprintf("%s/image/%s", strings.TrimRight(base, "/"), url.PathEscape(id))
}

func accountCountURL(base, user string) string {
	return fmt.Sprintf("%s/account/%s/images/count", strings.TrimRight(base, "/"), url.PathEscape(user))
}

func accountPageURL(base, user string, page int) string {
	return fmt.Sprintf("%s/account/%s/images/%d", strings.TrimRight(base, "/"), url.PathEscape(user), page)
}

// IsAlbumURL reports whether source points at an album or gallery post.
func IsAlbumURL(source string) bool {
	return strings.Contains(source, "imgur.com/a/") || strings.Contains(source, "imgur.com/gallery/")
}

// AlbumID returns the last path segment of an album URL.
func AlbumID(source string) string {
	return lastSegment(strings.TrimRight(source, "/"), "/")
}

// AccountName extracts the user from "{user}.imgur.com", a URL of that form,
// or a bare user name.
func AccountName(source string) string {
	first := source
	if i := strings.Index(source, "."); i >= 0 {
		first = source[:i]
	}
	return lastSegment(first, "/")
}

func lastSegment(s, sep string) string {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return s
}
