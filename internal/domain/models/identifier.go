package models

// Identifier is a canonical ticker symbol: uppercase, trimmed, vendor suffixes
// stripped and class-share separators mapped to "-". It is the join key across
// quotes, market caps and index constituents.
type Identifier string

func (id Identifier) String() string { return string(id) }

// IsEmpty reports whether the identifier carries no symbol. Empty identifiers
// are treated as not-found by every consumer.
func (id Identifier) IsEmpty() bool { return id == "" }

// Identifiers converts a slice of identifiers into plain strings.
func Identifiers(ids []Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
