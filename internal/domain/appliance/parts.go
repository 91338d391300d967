package appliance

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	partRequiredSplit = regexp.MustCompile(`(?i)(?:\*\*)?Part Required(?:\*\*)?:`)
	partRequiredLine  = regexp.MustCompile(`(?i)(?:\*\*)?Part Required(?:\*\*)?[:\s]+([^\n]+)`)
	partNumberLine    = regexp.MustCompile(`(?i)(?:\*\*)?Part Number(?:\*\*)?[:\s]+([^\n]+)`)
	labelledCost      = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:\*\*)?Cost(?:\*\*)?[:\s]+\$?\s*([\d.]+)`),
		regexp.MustCompile(`(?i)Cost[:\s]+\$([\d.]+)`),
		regexp.MustCompile(`(?i)Cost[:\s]+([\d.]+)`),
	}
	// sectionCost applies within one part block, where a bare dollar
	// amount belongs to that part.
	sectionCost = append([]*regexp.Regexp{
		regexp.MustCompile(`(?i)\*\*Cost\*\*[:\s]+\$?\s*([\d.]+)`),
	}, append(labelledCost, regexp.MustCompile(`\$\s*([\d.]+)`))...)
	dollarAmount  = regexp.MustCompile(`\$(\d+(?:\.\d{2})?)`)
	orderOfferRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)If you want to order the part`),
		regexp.MustCompile(`(?is)Would you like assistance.*?ordering.*?part`),
		regexp.MustCompile(`(?is)order the part.*?book.*?technician`),
		regexp.MustCompile(`(?is)order.*?technician.*?bring.*?install`),
	}
)

// MultiplePartsNumber is the part number used for a combined selection.
const MultiplePartsNumber = "Multiple Parts"

// ExtractParts pulls "Part Required / Part Number / Cost" blocks out of
// troubleshooting guidance. A part needs both a name and a number; a missing
// cost becomes 0.
func ExtractParts(content string) []Part {
	var parts []Part
	sections := partRequiredSplit.Split(content, -1)
	for _, section := range sections[1:] {
		name := firstLine(section)
		number := captureClean(partNumberLine, section)
		if name == "" || number == "" {
			continue
		}
		cost := findCost(section, sectionCost)
		if cost <= 0 {
			cost = costNear(content, number, 150, 300, sectionCost, true)
		}
		parts = append(parts, Part{Name: name, PartNumber: number, Price: positiveOrZero(cost)})
	}
	if len(parts) > 0 {
		return parts
	}

	name := captureClean(partRequiredLine, content)
	number := captureClean(partNumberLine, content)
	if name == "" || number == "" {
		return nil
	}
	cost := findCost(content, labelledCost)
	if cost <= 0 {
		cost = costNear(content, number, 100, 200, labelledCost, false)
	}
	return []Part{{Name: name, PartNumber: number, Price: positiveOrZero(cost)}}
}

// HasOrderOffer reports whether guidance invites the customer to order a part.
func HasOrderOffer(content string) bool {
	for _, re := range orderOfferRes {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// CombineParts merges a multi-part selection into a single orderable part.
func CombineParts(parts []Part) (Part, bool) {
	switch len(parts) {
	case 0:
		return Part{}, false
	case 1:
		return parts[0], true
	}
	names := make([]string, 0, len(parts))
	total := 0.0
	for _, p := range parts {
		names = append(names, p.Name)
		total += p.Price
	}
	return Part{
		Name:       strings.Join(names, " + "),
		PartNumber: MultiplePartsNumber,
		Price:      math.Round(total*100) / 100,
	}, true
}

// PartsTotal sums the price of parts.
func PartsTotal(parts []Part) float64 {
	total := 0.0
	for _, p := range parts {
		total += p.Price
	}
	return total
}

func firstLine(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if cleaned := stripMarkdown(line); cleaned != "" {
			return cleaned
		}
	}
	return ""
}

func captureClean(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return stripMarkdown(m[1])
}

func stripMarkdown(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
}

func findCost(text string, patterns []*regexp.Regexp) float64 {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func costNear(content, anchor string, before, after int, patterns []*regexp.Regexp, scanDollars bool) float64 {
	pos := strings.Index(content, anchor)
	if pos < 0 {
		return 0
	}
	start := max(0, pos-before)
	end := min(len(content), pos+after)
	nearby := content[start:end]
	if v := findCost(nearby, patterns); v > 0 {
		return v
	}
	if !scanDollars {
		return 0
	}
	for _, m := range dollarAmount.FindAllStringSubmatch(nearby, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 1 && v <= 10000 {
			return v
		}
	}
	return 0
}

func positiveOrZero(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

var (
	orderInstallRe = regexp.MustCompile(`(?is)order.*?part.*?technician.*?bring.*?install`)
	extraBlankRe   = regexp.MustCompile(`\n\n\n+`)
	blockEnds      = []string{"\n\n", "\n**"}
	paragraphEnds  = []string{"\n\n"}
)

// StripPartDetails removes part, cost and ordering text from guidance for
// issues whose parts come from the image catalog instead.
func StripPartDetails(guidance string) string {
	for _, marker := range []string{"**Part Required**:", "**Part Number**:", "**Cost**:"} {
		guidance = cutSpans(guidance, literalFinder(marker), blockEnds)
	}
	guidance = cutSpans(guidance, literalFinder("If you want to order the part"), paragraphEnds)
	guidance = cutSpans(guidance, func(s string) (int, int, bool) {
		loc := orderInstallRe.FindStringIndex(s)
		if loc == nil {
			return 0, 0, false
		}
		return loc[0], loc[1], true
	}, paragraphEnds)
	guidance = extraBlankRe.ReplaceAllString(guidance, "\n\n")
	return strings.TrimSpace(guidance)
}

type spanFinder func(s string) (start, end int, ok bool)

func literalFinder(marker string) spanFinder {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(marker))
	return func(s string) (int, int, bool) {
		loc := re.FindStringIndex(s)
		if loc == nil {
			return 0, 0, false
		}
		return loc[0], loc[1], true
	}
}

// cutSpans deletes every span that starts at a finder match and runs up to,
// but not including, the nearest terminator or the end of the text.
func cutSpans(text string, find spanFinder, terminators []string) string {
	var b strings.Builder
	rest := text
	for {
		start, end, ok := find(rest)
		if !ok {
			b.WriteString(rest)
			return b.String()
		}
		stop := len(rest)
		for _, term := range terminators {
			if i := strings.Index(rest[end:], term); i >= 0 && end+i < stop {
				stop = end + i
			}
		}
		b.WriteString(rest[:start])
		rest = rest[stop:]
	}
}
