package analysis

import (
	"regexp"
	"time"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// batchPattern accepts identifiers like AB-123: alphanumerics, a hyphen, three or more digits.
var batchPattern = regexp.MustCompile(`^[A-Za-z0-9]+-[0-9]{3,}$`)

// Issue texts reported by the manual rules.
const (
	IssueBatchRequired = "Batch number is required."
	IssueBatchFormat   = "Invalid Batch Format (e.g. AB-123)."
	IssueExpiryMissing = "Expiry Date is missing."
	IssueMfgFuture     = "Invalid Mfg Date: Future date."
	IssueExpiryFormat  = "Invalid Expiry Date (use YYYY-MM-DD)."
	IssueMfgFormat     = "Invalid Mfg Date (use YYYY-MM-DD)."
)

// ManualRules validates hand-entered batch fields.
type ManualRules struct{}

// Evaluate checks fields against today (YYYY-MM-DD). Every rule runs and all
// issues accumulate. A date that is not a calendar date in that layout is an
// issue of its own, never a pass.
func (ManualRules) Evaluate(fields domain.ManualFields, today string) domain.Verdict {
	issues := []string{}
	now, _ := time.Parse(domain.DateLayout, today)

	switch {
	case fields.BatchID == "":
		issues = append(issues, IssueBatchRequired)
	case !batchPattern.MatchString(fields.BatchID):
		issues = append(issues, IssueBatchFormat)
	}

	if fields.ExpiryDate == "" {
		issues = append(issues, IssueExpiryMissing)
	} else if expiry, err := time.Parse(domain.DateLayout, fields.ExpiryDate); err != nil {
		issues = append(issues, IssueExpiryFormat)
	} else if expiry.Before(now) {
		issues = append(issues, "Batch Expired on "+fields.ExpiryDate+".")
	}

	if fields.ManufactureDate != "" {
		if mfg, err := time.Parse(domain.DateLayout, fields.ManufactureDate); err != nil {
			issues = append(issues, IssueMfgFormat)
		} else if mfg.After(now) {
			issues = append(issues, IssueMfgFuture)
		}
	}

	passed := len(issues) == 0

	batchLine := "Batch Check: Missing"
	if fields.BatchID != "" {
		batchLine = "Batch Check: Done"
	}
	expiryLine := "Expiry Check: Failed"
	if passed {
		expiryLine = "Expiry Check: Valid"
	}

	v := domain.Verdict{
		Outcome:       domain.OutcomeFailed,
		Confidence:    0,
		AnalysisLines: []string{batchLine, expiryLine},
		Issues:        issues,
	}
	if passed {
		v.Outcome = domain.OutcomePassed
		v.Confidence = 100
	}
	return v
}
