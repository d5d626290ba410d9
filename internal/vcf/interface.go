// Package vcf provides VCF file parsing functionality.
package vcf

// VariantParser is the interface for parsers that read variant rows.
type VariantParser interface {
	// Next reads the next variant row.
	// Returns nil, nil when there are no more variants.
	Next() (*Variant, error)

	// SampleNames returns the genome column names, in column order.
	SampleNames() []string

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
