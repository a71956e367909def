package profile

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SplitSkills turns the comma-joined editing form of the skills field
// into the list form the API expects. Entries are NFC-normalized and
// trimmed, empties are dropped, order is preserved.
func SplitSkills(joined string) []string {
	parts := strings.Split(joined, ",")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		skill := strings.TrimSpace(norm.NFC.String(part))
		if skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}

// JoinSkills turns the list form of skills into the comma-joined form
// kept in the cache for editing.
func JoinSkills(skills []string) string {
	return strings.Join(skills, ", ")
}

// CanonicalURL normalizes a user-entered social link: empty stays empty,
// a missing scheme becomes https, scheme and host are lowercased. Input
// that does not parse is passed through for the server to reject.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
