package mandrillx

import (
	"maps"
	"slices"
)

// MergeVar is one {name, content} pair.
type MergeVar struct {
	Name    string `json:"name"`
	Content any    `json:"content"`
}

// RecipientMergeVars holds the merge vars of one recipient.
type RecipientMergeVars struct {
	Rcpt string     `json:"rcpt"`
	Vars []MergeVar `json:"vars"`
}

// RecipientMetadata holds the metadata of one recipient.
type RecipientMetadata struct {
	Rcpt   string         `json:"rcpt"`
	Values map[string]any `json:"values"`
}

// ExpandMergeVars converts vars into name/content pairs sorted by name. An
// empty mapping yields an empty, non-nil slice.
func ExpandMergeVars(vars map[string]any) []MergeVar {
	out := make([]MergeVar, 0, len(vars))
	for _, name := range sortedKeys(vars) {
		out = append(out, MergeVar{Name: name, Content: vars[name]})
	}
	return out
}

// ExpandRecipientVars expands per-recipient vars, ordered by recipient email.
func ExpandRecipientVars(vars map[string]map[string]any) []RecipientMergeVars {
	out := make([]RecipientMergeVars, 0, len(vars))
	for _, rcpt := range sortedKeys(vars) {
		out = append(out, RecipientMergeVars{Rcpt: rcpt, Vars: ExpandMergeVars(vars[rcpt])})
	}
	return out
}

// ExpandRecipientMetadata expands per-recipient metadata, ordered by
// recipient email.
func ExpandRecipientMetadata(meta map[string]map[string]any) []RecipientMetadata {
	out := make([]RecipientMetadata, 0, len(meta))
	for _, rcpt := range sortedKeys(meta) {
		out = append(out, RecipientMetadata{Rcpt: rcpt, Values: meta[rcpt]})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
