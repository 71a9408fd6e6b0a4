// Package pages parses page selectors like "1", "2-5", "1,3,7", and "all".
package pages

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Selector is a parsed page selection. All set means every page; otherwise
// Pages holds the selected page numbers sorted ascending without
// duplicates.
type Selector struct {
	All   bool
	Pages []int
}

// Parse validates and normalizes a page selector. Page numbers are
// 1-based; ranges are inclusive.
func Parse(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, fmt.Errorf("empty page selector")
	}
	if strings.EqualFold(s, "all") {
		return Selector{All: true}, nil
	}

	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Selector{}, fmt.Errorf("empty element in page selector %q", s)
		}

		lo, hi, err := parsePart(part)
		if err != nil {
			return Selector{}, err
		}
		for p := lo; p <= hi; p++ {
			seen[p] = true
		}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return Selector{Pages: pages}, nil
}

func parsePart(part string) (lo, hi int, err error) {
	if first, rest, ok := strings.Cut(part, "-"); ok {
		start, err := parsePage(first)
		if err != nil {
			return 0, 0, err
		}
		end, err := parsePage(rest)
		if err != nil {
			return 0, 0, err
		}
		if end < start {
			return 0, 0, fmt.Errorf("page range %q runs backwards", part)
		}
		return start, end, nil
	}
	p, err := parsePage(part)
	if err != nil {
		return 0, 0, err
	}
	return p, p, nil
}

func parsePage(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 {
		return 0, fmt.Errorf("invalid page number %q", s)
	}
	return p, nil
}

// String renders the selector in the form the API accepts.
func (s Selector) String() string {
	if s.All {
		return "all"
	}
	parts := make([]string, len(s.Pages))
	for i, p := range s.Pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
