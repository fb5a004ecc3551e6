// Package grade recovers handwritten grades from the first page of every
// student in a combined document.
package grade

// VerifyConfidenceThreshold is the OCR confidence below which a grade is
// flagged for a human to check.
const VerifyConfidenceThreshold = 0.7

// Record is the grade read from one student's first page.
type Record struct {
	StudentName string
	Grade       string
	RawOCRText  string
	Confidence  float64
	Page        int // 1-based page in the combined document
	Engine      string
	// Fuzzy is set when the name was recovered by similarity rather than
	// read verbatim from the watermark.
	Fuzzy bool
}

// Found reports whether a grade token was recognized.
func (r Record) Found() bool { return r.Grade != "" && r.Grade != NoGradeFound }

// NeedsVerification reports whether r should be checked by hand.
func NeedsVerification(r Record) bool {
	return NeedsVerificationAt(r, VerifyConfidenceThreshold)
}

// NeedsVerificationAt is NeedsVerification with a configured threshold.
func NeedsVerificationAt(r Record, threshold float64) bool {
	return r.Confidence < threshold || r.Fuzzy
}
