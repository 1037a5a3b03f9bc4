// Package expand implements deterministic query and corpus text expansion.
// Brand, synonym, and category tables make semantic matching tolerant of
// vocabulary variation ("Apple phone" matching a listing tagged "iPhone").
// Everything here is pure: no I/O, same output for the same input, so the
// semantic pipeline is unit-testable without a live embedding service.
package expand

import (
	"regexp"
	"strings"
)

// Delimiter joins expanded terms and corpus parts.
const Delimiter = " | "

var (
	punctRe = regexp.MustCompile(`[^\w\s-]`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Clean lowercases a query and strips punctuation, keeping word characters,
// spaces, and hyphens, with whitespace collapsed.
func Clean(query string) string {
	cleaned := punctRe.ReplaceAllString(query, " ")
	cleaned = spaceRe.ReplaceAllString(cleaned, " ")
	return strings.ToLower(strings.TrimSpace(cleaned))
}

// Query cleans a raw query and appends expansion terms from the synonym,
// brand, and category tables, in that order. Table keys match by substring
// containment against the cleaned query. The result preserves first-seen
// order, deduplicates case-insensitively, and always starts with the cleaned
// query itself. With no table match the output equals the cleaned query.
func Query(raw string) string {
	cleaned := Clean(raw)
	terms := []string{cleaned}

	for _, tables := range [][]tableEntry{synonymTable, brandTable, categoryTable} {
		for _, e := range tables {
			if strings.Contains(cleaned, e.key) {
				terms = append(terms, e.terms...)
			}
		}
	}

	return strings.Join(dedupe(terms), Delimiter)
}

// Tags returns the tag list followed by the expansion terms of the first
// matching rule per tag, preserving order.
func Tags(tags []string) []string {
	expanded := make([]string, 0, len(tags))
	expanded = append(expanded, tags...)

	for _, tag := range tags {
		lower := strings.ToLower(tag)
	rules:
		for _, rule := range tagRules {
			for _, ex := range rule.excludes {
				if strings.Contains(lower, ex) {
					continue rules
				}
			}
			for _, sub := range rule.contains {
				if strings.Contains(lower, sub) {
					expanded = append(expanded, rule.terms...)
					break rules
				}
			}
		}
	}

	return expanded
}

// dedupe removes case-insensitive duplicates preserving first-seen order.
func dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	unique := make([]string, 0, len(terms))
	for _, t := range terms {
		key := strings.ToLower(t)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, t)
		}
	}
	return unique
}
