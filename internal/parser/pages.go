package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var pageMarker = regexp.MustCompile(`^\s*---\s*PAGE\s+(\d+)\s*---\s*$`)

// JoinPages combines per-page text into one document, preceding each page
// with a "--- PAGE n ---" marker line.
func JoinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "\n--- PAGE %d ---\n", i+1)
		b.WriteString("\n")
		b.WriteString(p)
	}
	return b.String()
}

// ParsePageMarker returns the page number of a marker line.
func ParsePageMarker(line string) (int, bool) {
	m := pageMarker.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// PageAt returns the page number in effect at byte offset pos of text:
// the last marker before pos, or 1 when there is none.
func PageAt(text string, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	page := 1
	for _, line := range strings.Split(text[:pos], "\n") {
		if n, ok := ParsePageMarker(line); ok {
			page = n
		}
	}
	return page
}

// LineAt returns the 1-based line number containing byte offset pos.
func LineAt(text string, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	return strings.Count(text[:pos], "\n") + 1
}

// SplitPages is the inverse of a client-side join using sep. Empty pages
// are dropped.
func SplitPages(text, sep string) []string {
	var pages []string
	for _, p := range strings.Split(text, sep) {
		if p = strings.TrimSpace(p); p != "" {
			pages = append(pages, p)
		}
	}
	return pages
}

// SplitMarkedPages splits text produced by JoinPages back into pages. Text
// without any marker is a single page.
func SplitMarkedPages(text string) []string {
	var pages, cur []string
	marked := false
	flush := func() {
		page := strings.TrimSpace(strings.Join(cur, "\n"))
		if page != "" || marked {
			pages = append(pages, page)
		}
		cur = nil
	}
	for _, line := range strings.Split(text, "\n") {
		if _, ok := ParsePageMarker(line); ok {
			flush()
			marked = true
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return pages
}
