package analysis

import (
	"regexp"
	"strings"
)

// Fallback references used when extracted text carries no usable value.
const (
	UnknownBatch   = "SCANNED-BATCH"
	UnknownProduct = "Unknown Product (Scanned)"
)

var (
	batchLine   = regexp.MustCompile(`(?mi)^\s*batch(?:\s+no\.?)?\s*:\s*(\S+)\s*$`)
	productLine = regexp.MustCompile(`(?mi)^\s*(?:product|contains)\s*:\s*(.+?)\s*$`)
	dosageLine  = regexp.MustCompile(`(?mi)^\s*dosage\s*:\s*(.+?)\s*$`)
)

// BatchReference reads the batch number out of extracted text.
func BatchReference(text string) string {
	if m := batchLine.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return UnknownBatch
}

// ProductLabel reads the product name (with dosage, if listed separately) out of extracted text.
func ProductLabel(text string) string {
	m := productLine.FindStringSubmatch(text)
	if m == nil {
		return UnknownProduct
	}
	label := m[1]
	if d := dosageLine.FindStringSubmatch(text); d != nil && !strings.Contains(label, d[1]) {
		label += " " + d[1]
	}
	return label
}
