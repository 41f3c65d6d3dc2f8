// Package naming turns raw release file names into tidy upload names and
// human-readable titles used as storage folder names.
package naming

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	sitePrefix = regexp.MustCompile(`(?i)^www\.[^\s_-]+[_\-\s]+`)
	separators = regexp.MustCompile(`[_\-.]+`)
	spaces     = regexp.MustCompile(`\s{2,}`)
	yearTitle  = regexp.MustCompile(`^(.+?)\s+\d{4}`)
	tagTitle   = regexp.MustCompile(`(?i)^(.+?)\s+(Tamil|Hindi|Telugu|Malayalam|Kannada|English|TRUE|WEB|HDRip|DVDRip|BluRay)`)
)

// ext returns the extension of name the way a file manager shows it:
// a leading dot alone (".hidden") is not an extension.
func ext(name string) string {
	e := filepath.Ext(name)
	if e == name {
		return ""
	}
	return e
}

// CleanFileName strips a leading "www.site" prefix from the base name,
// turns '_', '-' and '.' runs into spaces, collapses whitespace and puts the
// extension back unchanged.
//
//	CleanFileName("www.example.com_Movie.Name.2020.WEB.mkv") == "Movie Name 2020 WEB.mkv"
func CleanFileName(name string) string {
	e := ext(name)
	base := strings.TrimSuffix(name, e)

	base = sitePrefix.ReplaceAllString(base, "")
	base = separators.ReplaceAllString(base, " ")
	base = spaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	return base + e
}

// Title extracts a title from a cleaned name: the words before the first
// four-digit year, else the words before a known language or quality tag,
// else the whole name without its extension.
func Title(cleaned string) string {
	base := strings.TrimSuffix(cleaned, ext(cleaned))

	if m := yearTitle.FindStringSubmatch(base); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := tagTitle.FindStringSubmatch(base); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(base)
}
