package analysis

import (
	"context"
	"fmt"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// Fixed texts reported by the scripted detector.
const (
	docText = "CERTIFICATE OF ANALYSIS\n" +
		"----------------------\n" +
		"Product: Amoxicillin 500mg\n" +
		"Batch No: BATCH-882\n" +
		"Mfg Date: 2024-01-10\n" +
		"Exp Date: 2025-12-31\n" +
		"\n" +
		"TESTS:\n" +
		"Assay: 99.8% (Pass)\n" +
		"pH: 4.5 (Pass)"

	qrText = "ID: 8829901\n" +
		"BATCH: BATCH-882\n" +
		"EXP: 2025-12-31"

	labelText = "LABEL DETECTED\n" +
		"--------------\n" +
		"Brand: MediCorp\n" +
		"Contains: Paracetamol\n" +
		"Dosage: 500mg\n" +
		"Batch: BATCH-882\n" +
		"Exp: 12/2025"
)

var (
	passLines = []string{
		"Spectral Analysis: Verified",
		"AI Pattern Check: 99% Match",
		"OCR Text Extraction: Success",
	}
	failLines  = []string{"Spectral Analysis: Failed (Red Flag)"}
	failIssues = []string{
		"AI Analysis: Label Hologram Missing.",
		"Database: Batch ID not found in global registry.",
	}
)

// ScriptedDetector stands in for a real recogniser. It returns a fixed text
// block per modality and one of two fixed verdicts picked by the fail-mode switch.
type ScriptedDetector struct{}

// Extract returns the text template for the modality.
func (ScriptedDetector) Extract(_ context.Context, modality domain.Modality, _ *domain.ImagePreview) (string, error) {
	switch modality {
	case domain.ModalityDocument:
		return docText, nil
	case domain.ModalityQRImage:
		return qrText, nil
	case domain.ModalityPackagingImage:
		return labelText, nil
	}
	return "", fmt.Errorf("no text template for modality %q", modality)
}

// Analyze returns the pass or fail verdict regardless of text.
func (ScriptedDetector) Analyze(_ context.Context, modality domain.Modality, _ string, failMode bool) (domain.Verdict, error) {
	if !modality.IsImage() {
		return domain.Verdict{}, fmt.Errorf("modality %q is not scanned", modality)
	}
	if failMode {
		return domain.Verdict{
			Outcome:       domain.OutcomeFailed,
			Confidence:    15.0,
			AnalysisLines: append([]string(nil), failLines...),
			Issues:        append([]string(nil), failIssues...),
		}, nil
	}
	return domain.Verdict{
		Outcome:       domain.OutcomePassed,
		Confidence:    98.2,
		AnalysisLines: append([]string(nil), passLines...),
		Issues:        []string{},
	}, nil
}
