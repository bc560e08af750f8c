package trigger

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label renders a category key as a human-readable title, e.g.
// "medical_procedures" becomes "Medical Procedures".
func Label(category Category) string {
	cleaned := strings.ReplaceAll(string(category), "_", " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "Unknown"
	}
	return cases.Title(language.Und).String(cleaned)
}
