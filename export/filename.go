package export

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

type filenameData struct {
	Format      string
	PageSize    string
	Orientation string
	SlideLayout string
	Title       string
}

// RenderFilename renders the deterministic artifact filename. Filenames never
// carry a timestamp so repeat exports overwrite the previous download.
func RenderFilename(format Format, opts Options) (string, error) {
	name := opts.Filename
	if name == "" {
		name = DefaultFilename
	}

	data := filenameData{
		Format:      string(format),
		PageSize:    strings.ToUpper(opts.PageSize),
		Orientation: string(opts.Orientation),
		SlideLayout: opts.SlideLayout,
		Title:       opts.Metadata.Title,
	}

	tmpl, err := template.New("filename").Option("missingkey=error").Parse(name)
	if err != nil {
		return "", NewError(KindValidation, "invalid filename template", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewError(KindValidation, "invalid filename template", err)
	}

	result := sanitizeFilename(buf.String())
	if result == "" {
		return "", NewError(KindValidation, fmt.Sprintf("empty filename for %s export", format), nil)
	}

	ext := extensionFor(format)
	if !strings.HasSuffix(strings.ToLower(result), "."+ext) {
		result = result + "." + ext
	}
	return result, nil
}

// ContentTypeFor returns the MIME type of an output format.
func ContentTypeFor(format Format) string {
	switch format {
	case FormatDocument:
		return "application/pdf"
	case FormatDeck:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/octet-stream"
	}
}

func extensionFor(format Format) string {
	switch format {
	case FormatDeck:
		return "pptx"
	default:
		return "pdf"
	}
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer("/", "-", "\\", "-", "\"", "", "\n", " ", "\r", " ")
	name = replacer.Replace(name)
	return strings.Trim(name, ". ")
}
