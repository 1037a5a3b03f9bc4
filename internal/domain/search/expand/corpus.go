package expand

import "strings"

// CorpusInput holds the listing fields that feed the canonical corpus text.
// Missing fields contribute nothing.
type CorpusInput struct {
	Title       string
	Description string
	Category    string
	Tags        []string
	City        string
}

// Corpus builds the canonical text representation of a listing for embedding:
// title, description, a category clause, the expanded tag list, and a
// location clause, joined by the delimiter with empty parts omitted.
//
// Both the write-path embedding job and the full backfill call this function;
// it must stay byte-identical between the two or semantic recall silently
// degrades against stale vectors.
func Corpus(in CorpusInput) string {
	parts := make([]string, 0, 5)

	if in.Title != "" {
		parts = append(parts, in.Title)
	}
	if in.Description != "" {
		parts = append(parts, in.Description)
	}
	if in.Category != "" {
		parts = append(parts, "Category: "+in.Category)
	}
	if expanded := Tags(in.Tags); len(expanded) > 0 {
		parts = append(parts, strings.Join(expanded, " "))
	}
	if in.City != "" {
		parts = append(parts, "Location: "+in.City)
	}

	return strings.Join(parts, Delimiter)
}
