package core

import (
	"fmt"
	"io"
	"strings"
)

// Upload template download metadata. The file is tab-separated despite the
// extension so spreadsheet tools open it directly.
const (
	TemplateFileName    = "business_listings_template.csv"
	TemplateContentType = "text/csv"
)

// WriteTemplate writes the header row and one valid sample row.
func WriteTemplate(w io.Writer, schema Schema) error {
	samples := make([]string, len(schema))
	for i, f := range schema {
		samples[i] = f.Sample
	}

	if _, err := fmt.Fprintf(w, "%s\n%s\n", strings.Join(schema.Labels(), "\t"), strings.Join(samples, "\t")); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
