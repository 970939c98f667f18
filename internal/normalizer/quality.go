package normalizer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// QualityParser extracts grade, variety and processing state from the
// free-text product description. It is a rule-based classifier: pure
// function over a string, no ML, so commodity rule sets can be tested in
// isolation and extended without touching the pipeline.
type QualityParser struct {
	outturn     *regexp.Regexp
	nutCount    *regexp.Regexp
	kernelGrade *regexp.Regexp
	purity      *regexp.Regexp
	broken      *regexp.Regexp
	protein     *regexp.Regexp
	moisture    *regexp.Regexp
}

// NewQualityParser compiles the shared token patterns once.
func NewQualityParser() *QualityParser {
	return &QualityParser{
		outturn:     regexp.MustCompile(`OUTTURN\s*[:\-]?\s*(\d+\.?\d*)\s*(?:LBS|#)?`),
		nutCount:    regexp.MustCompile(`(\d+)\s*(?:NUTS?|NUT)\s*/?\s*KG`),
		kernelGrade: regexp.MustCompile(`(W\s?180|W\s?210|W\s?240|W\s?320|W\s?450|WW\d+|SW\d+|LWP|SWP|BB|SS)`),
		purity:      regexp.MustCompile(`(\d{2}\.?\d*)\s*%\s*(?:PURITY|PURE)`),
		broken:      regexp.MustCompile(`(\d+)\s*%?\s*(?:BROKEN|BRKN|PCT)`),
		protein:     regexp.MustCompile(`(\d+\.?\d*)\s*%?\s*PROTEIN`),
		moisture:    regexp.MustCompile(`(\d+\.?\d*)\s*%?\s*MOISTURE`),
	}
}

// Parse classifies a product description for a commodity. Unknown
// commodities get the generic low-confidence default.
func (q *QualityParser) Parse(productText, hctID string) domain.QualityEstimate {
	if strings.TrimSpace(productText) == "" {
		return domain.QualityEstimate{Grade: "Unknown", Confidence: 0, Details: "No description"}
	}
	text := strings.ToUpper(strings.TrimSpace(productText))

	switch {
	case strings.Contains(hctID, "RCN"):
		return q.parseCashew(text)
	case strings.Contains(hctID, "KERNEL"):
		return q.parseCashewKernel(text)
	case strings.Contains(hctID, "SESAME"):
		return q.parseSesame(text)
	case strings.Contains(hctID, "RICE"):
		return q.parseRice(text)
	case strings.Contains(hctID, "SOYBEAN"):
		return q.parseSoybean(text)
	}
	return domain.QualityEstimate{Grade: "Standard", Confidence: 0.3}
}

func (q *QualityParser) parseCashew(text string) domain.QualityEstimate {
	var signals []string
	var details []string
	grade := "Standard"

	state := "raw_in_shell"
	if strings.Contains(text, "KERNEL") || containsAny(text, "W180", "W240", "W320", "W450") {
		state = "kernel"
	} else if strings.Contains(text, "SHELLED") {
		state = "shelled"
	}
	details = append(details, "state="+state)

	// Outturn (KOR) is the critical quality indicator for RCN.
	if m := q.outturn.FindStringSubmatch(text); m != nil {
		outturn, _ := strconv.ParseFloat(m[1], 64)
		signals = append(signals, "outturn_detected")
		details = append(details, fmt.Sprintf("outturn=%g lbs", outturn))
		switch {
		case outturn >= 48:
			grade = "Premium"
		case outturn >= 44:
			grade = "Grade A"
		default:
			grade = "Grade B"
		}
	}

	if m := q.nutCount.FindStringSubmatch(text); m != nil {
		signals = append(signals, "nut_count_detected")
		details = append(details, fmt.Sprintf("nut_count=%s/kg", m[1]))
	}

	for _, origin := range []string{"IVORY COAST", "GHANA", "NIGERIA", "TANZANIA", "MOZAMBIQUE", "GUINEA BISSAU", "BENIN", "COTE D'IVOIRE"} {
		if strings.Contains(text, origin) {
			signals = append(signals, "origin_claim")
			details = append(details, "origin="+origin)
			break
		}
	}

	return estimate(grade, 0.3, 0.2, signals, details)
}

func (q *QualityParser) parseCashewKernel(text string) domain.QualityEstimate {
	var signals []string
	var details []string
	grade := "Standard"

	if m := q.kernelGrade.FindStringSubmatch(text); m != nil {
		grade = strings.ReplaceAll(m[1], " ", "")
		signals = append(signals, "kernel_grade_detected")
		details = append(details, "grade="+grade)
	}
	if strings.Contains(text, "SCORCHED") {
		signals = append(signals, "processing_note")
		details = append(details, "scorched")
	}
	if strings.Contains(text, "DESSERT") {
		signals = append(signals, "processing_note")
		details = append(details, "dessert")
	}

	return estimate(grade, 0.4, 0.25, signals, details)
}

func (q *QualityParser) parseSesame(text string) domain.QualityEstimate {
	var signals []string
	var details []string
	grade := "Standard"

	if m := q.purity.FindStringSubmatch(text); m != nil {
		purity, _ := strconv.ParseFloat(m[1], 64)
		signals = append(signals, "purity_detected")
		details = append(details, fmt.Sprintf("purity=%g%%", purity))
		switch {
		case purity >= 99.95:
			grade = "Premium Hulled"
		case purity >= 99.90:
			grade = "Hulled"
		}
	}

	if strings.Contains(text, "HULLED") && !strings.Contains(text, "UNHULLED") {
		signals = append(signals, "processing_state")
		details = append(details, "hulled")
		if grade == "Standard" {
			grade = "Hulled"
		}
	} else if strings.Contains(text, "NATURAL") || strings.Contains(text, "UNHULLED") {
		signals = append(signals, "processing_state")
		details = append(details, "natural/unhulled")
		grade = "Natural"
	}

	if strings.Contains(text, "AFLATOXIN") && strings.Contains(text, "FREE") {
		signals = append(signals, "quality_certification")
		details = append(details, "aflatoxin-free")
	}

	for _, color := range []string{"WHITE", "BLACK", "BROWN", "MIXED"} {
		if strings.Contains(text, color) {
			signals = append(signals, "color_detected")
			details = append(details, "color="+strings.ToLower(color))
			break
		}
	}

	return estimate(grade, 0.3, 0.2, signals, details)
}

func (q *QualityParser) parseRice(text string) domain.QualityEstimate {
	var signals []string
	var details []string
	grade := "Standard"

	if m := q.broken.FindStringSubmatch(text); m != nil {
		pct, _ := strconv.Atoi(m[1])
		signals = append(signals, "broken_pct_detected")
		details = append(details, fmt.Sprintf("broken=%d%%", pct))
		switch {
		case pct <= 5:
			grade = "5% Broken (Premium)"
		case pct <= 15:
			grade = fmt.Sprintf("%d%% Broken (Mid)", pct)
		case pct <= 25:
			grade = "25% Broken (Standard)"
		default:
			grade = "100% Broken (Value)"
		}
	}

	if strings.Contains(text, "BASMATI") {
		grade = "Basmati"
		signals = append(signals, "variety_detected")
		if strings.Contains(text, "1121") {
			details = append(details, "variety=1121")
		}
		if strings.Contains(text, "SELLA") {
			details = append(details, "processing=sella/parboiled")
		}
		if strings.Contains(text, "STEAM") {
			details = append(details, "processing=steamed")
		}
	}

	if strings.Contains(text, "LONG GRAIN") {
		signals = append(signals, "type_detected")
		details = append(details, "long grain")
	}
	if strings.Contains(text, "PARBOILED") && !strings.Contains(text, "BASMATI") {
		signals = append(signals, "processing_detected")
		details = append(details, "parboiled")
	}

	for _, variety := range []string{"PONNI", "SONA MASURI", "SONA MASOORI", "SUGANDHA", "PUSA"} {
		if strings.Contains(text, variety) {
			signals = append(signals, "variety_detected")
			details = append(details, "variety="+variety)
			break
		}
	}

	return estimate(grade, 0.3, 0.2, signals, details)
}

func (q *QualityParser) parseSoybean(text string) domain.QualityEstimate {
	var signals []string
	var details []string
	grade := "Standard"

	if strings.Contains(text, "FEED") {
		grade = "Feed Grade"
		signals = append(signals, "grade_detected")
		details = append(details, "feed grade")
	}
	if strings.Contains(text, "NON-GMO") || strings.Contains(text, "NON GMO") {
		signals = append(signals, "gmo_status")
		details = append(details, "non-GMO")
	}
	if m := q.protein.FindStringSubmatch(text); m != nil {
		signals = append(signals, "protein_detected")
		details = append(details, fmt.Sprintf("protein=%s%%", m[1]))
	}
	if m := q.moisture.FindStringSubmatch(text); m != nil {
		signals = append(signals, "moisture_detected")
		details = append(details, fmt.Sprintf("moisture=%s%%", m[1]))
	}

	return estimate(grade, 0.3, 0.2, signals, details)
}

// estimate builds the result with the base + per-signal confidence
// model, capped at 0.95: parsed text is never certainty.
func estimate(grade string, base, perSignal float64, signals, details []string) domain.QualityEstimate {
	return domain.QualityEstimate{
		Grade:       grade,
		Confidence:  math.Min(base+float64(len(signals))*perSignal, 0.95),
		SignalsUsed: signals,
		Details:     strings.Join(details, "; "),
	}
}

func containsAny(text string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
