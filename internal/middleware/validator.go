package middleware

import (
	"path"
	"strings"
)

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// SanitizeFilename keeps only the base name of a client supplied filename.
// Clients on Windows send backslash separated paths, so both separators count.
func SanitizeFilename(name string) string {
	name = SanitizeString(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(strings.ReplaceAll(name, "\n", ""))
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "upload"
	}
	return base
}
