package izv

import (
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoPartialArchive is returned when the index lists no month-year archive,
// so the current, incomplete year cannot be covered.
var ErrNoPartialArchive = errors.New("index lists no month-year archive")

// ErrNoArchiveLinks is returned when the index page has no ZIP download buttons.
var ErrNoArchiveLinks = errors.New("index lists no archive links")

var (
	// onclickZipRe pulls the archive path out of an onclick handler such as
	// "download('data/datagis2016.zip')".
	onclickZipRe = regexp.MustCompile(`([^'"\s()]+\.zip)`)

	// yearArchiveRe matches any archive name ending in a four-digit year.
	yearArchiveRe = regexp.MustCompile(`\d{4}\.zip$`)

	// partialArchiveRe matches "M-YYYY.zip" and "MM-YYYY.zip", the
	// year-to-date archives. Any digit-hyphen before the year marks one.
	partialArchiveRe = regexp.MustCompile(`(\d{1,2})-(\d{4})\.zip$`)
)

// ParseIndex scans an index page for elements with class "btn" whose text is
// "ZIP" and returns the archive paths referenced by their onclick handlers,
// in document order without duplicates.
func ParseIndex(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	var links []string
	seen := make(map[string]bool)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "btn") && strings.TrimSpace(textOf(n)) == "ZIP" {
			if m := onclickZipRe.FindStringSubmatch(attr(n, "onclick")); m != nil && !seen[m[1]] {
				seen[m[1]] = true
				links = append(links, m[1])
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(links) == 0 {
		return nil, ErrNoArchiveLinks
	}
	return links, nil
}

// SelectArchives keeps whole-year archives and adds the single most recent
// month-year archive, which covers the year not yet published in full.
// Older month-year archives duplicate data of whole-year ones and are skipped.
func SelectArchives(links []string) ([]string, error) {
	var (
		selected  []string
		latest    string
		latestKey int
	)
	for _, l := range links {
		name := path.Base(l)
		if m := partialArchiveRe.FindStringSubmatch(name); m != nil {
			month, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[2])
			if key := year*100 + month; key > latestKey {
				latestKey, latest = key, l
			}
			continue
		}
		if yearArchiveRe.MatchString(name) {
			selected = append(selected, l)
		}
	}

	if latest == "" {
		return nil, ErrNoPartialArchive
	}
	return append(selected, latest), nil
}

// IsArchiveName reports whether a local file name is a yearly or month-year archive.
func IsArchiveName(name string) bool {
	return yearArchiveRe.MatchString(name)
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
