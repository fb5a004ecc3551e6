package grade

import (
	"regexp"
	"strconv"
	"strings"
)

// NoGradeFound is the grade of a page whose OCR text holds no usable number.
const NoGradeFound = "No grade found"

// ocrFixes maps characters OCR commonly reads in place of digits.
var ocrFixes = strings.NewReplacer(
	"o", "0", "O", "0",
	"l", "1", "I", "1",
	"s", "5", "S", "5",
	"g", "9", "G", "9",
	"b", "6", "B", "6",
	"z", "2", "Z", "2",
	",", ".",
)

var (
	fractionRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*(\d+)`)
	percentRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	decimalRe  = regexp.MustCompile(`\b\d+\.\d+\b`)
	wholeRe    = regexp.MustCompile(`\b(?:100|[1-9]\d)\b`)
	digitRe    = regexp.MustCompile(`\b\d\b`)
	runRe      = regexp.MustCompile(`\d+`)
)

// ExtractGradeFromText pulls a grade token out of raw OCR text. Look-alike
// letters are corrected first, then the first match wins in this order:
// fraction, percentage, decimal within [0,100], whole number within
// [10,100], single digit, any digit run within [0,100].
func ExtractGradeFromText(raw string) string {
	if strings.TrimSpace(raw) == NoGradeFound {
		return NoGradeFound
	}
	text := ocrFixes.Replace(raw)

	if m := fractionRe.FindStringSubmatch(text); m != nil {
		return m[1] + "/" + m[2]
	}
	if m := percentRe.FindStringSubmatch(text); m != nil {
		return m[1] + "%"
	}
	for _, d := range decimalRe.FindAllString(text, -1) {
		if inRange(d) {
			return d
		}
	}
	if m := wholeRe.FindString(text); m != "" {
		return m
	}
	if m := digitRe.FindString(text); m != "" {
		return m
	}
	for _, d := range runRe.FindAllString(text, -1) {
		if inRange(d) {
			return d
		}
	}
	return NoGradeFound
}

func inRange(s string) bool {
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && v >= 0 && v <= 100
}
