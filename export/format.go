package export

import (
	"fmt"
	"strings"
)

// NormalizeFormat coerces format values into known aliases.
func NormalizeFormat(format Format) Format {
	normalized := strings.ToLower(strings.TrimSpace(string(format)))
	switch normalized {
	case "", "pdf", "document", "paged", "paged_document":
		return FormatDocument
	case "pptx", "ppt", "deck", "slides", "slide_deck", "powerpoint":
		return FormatDeck
	default:
		return Format(normalized)
	}
}

// ValidateFormat rejects unknown formats.
func ValidateFormat(format Format) error {
	switch format {
	case FormatDocument, FormatDeck:
		return nil
	default:
		return NewError(KindValidation, fmt.Sprintf("unsupported export format: %s", format), nil)
	}
}
