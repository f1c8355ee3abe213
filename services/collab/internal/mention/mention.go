// Package mention extracts @username tokens from comment and reply text.
package mention

import "regexp"

var pattern = regexp.MustCompile(`@(\w+)`)

// Extract returns the usernames referenced in text, in order of first
// occurrence, with duplicates removed. Usernames are the word-character run
// after the @; no check is made that they resolve to a real user.
func Extract(text string) []string {
	matches := pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
