package command

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-visual-export/export"
)

// ExportDocument requests a paged document of the current page.
type ExportDocument struct {
	Entry   string
	Options export.Options
	Saver   export.Saver
	Result  *export.ExportResult
}

func (ExportDocument) Type() string { return "export:document" }

func (msg ExportDocument) Validate() error {
	return validateEntry(msg.Entry)
}

// ExportDeck requests a slide deck of the current page.
type ExportDeck struct {
	Entry   string
	Options export.Options
	Saver   export.Saver
	Result  *export.ExportResult
}

func (ExportDeck) Type() string { return "export:deck" }

func (msg ExportDeck) Validate() error {
	return validateEntry(msg.Entry)
}

func validateEntry(entry string) error {
	switch strings.TrimSpace(entry) {
	case "", export.EntryFloating, export.EntryNavbar:
		return nil
	default:
		return errors.New("unknown entry point: "+entry, errors.CategoryValidation).
			WithTextCode("ENTRY_INVALID")
	}
}
