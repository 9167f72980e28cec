// Package ticker canonicalizes raw symbol strings coming from spreadsheets,
// configuration and provider payloads into models.Identifier values.
package ticker

import (
	"strings"

	"IndexImpact/internal/domain/models"
)

// CanonicalSeparator joins the root symbol and share class ("BRK-B").
const CanonicalSeparator = "-"

// Normalize maps any raw string to its canonical identifier. It never fails:
// input that cannot be interpreted still yields a best-effort value, and blank
// input yields the empty identifier.
func Normalize(raw string) models.Identifier {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	// "AAPL US Equity" -> "AAPL": venue and asset-class suffixes follow the first space.
	s := strings.ToUpper(fields[0])
	s = strings.ReplaceAll(s, ".", CanonicalSeparator)
	return models.Identifier(s)
}

// NormalizeAll normalizes every raw string and removes duplicates and blanks,
// keeping the first-seen order.
func NormalizeAll(raws []string) []models.Identifier {
	seen := make(map[models.Identifier]struct{}, len(raws))
	out := make([]models.Identifier, 0, len(raws))
	for _, raw := range raws {
		id := Normalize(raw)
		if id.IsEmpty() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Union merges identifier lists, first-seen order, no duplicates.
func Union(lists ...[]models.Identifier) []models.Identifier {
	seen := make(map[models.Identifier]struct{})
	var out []models.Identifier
	for _, list := range lists {
		for _, id := range list {
			if id.IsEmpty() {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// ToProvider renders an identifier with the separator a provider expects.
func ToProvider(id models.Identifier, sep string) string {
	if sep == "" || sep == CanonicalSeparator {
		return string(id)
	}
	return strings.ReplaceAll(string(id), CanonicalSeparator, sep)
}

// FromProvider maps a provider symbol back to its canonical identifier.
func FromProvider(symbol string) models.Identifier {
	return Normalize(symbol)
}
