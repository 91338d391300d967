package appliance

import (
	"regexp"
	"strings"
)

// MaxListedIssues caps the issue list shown to the customer.
const MaxListedIssues = 10

// RefrigeratorType is the type that carries the parts-backed special issues.
const RefrigeratorType = "Refrigerator"

// Special issues backed by the parts image catalog.
const (
	IssueLightsNotWorking = "Lights Not Working Inside"
	IssueWaterLeakage     = "Water Leakage Inside / Outside"
	IssueDoorNotSealing   = "Door Not Sealing Properly"
)

// RefrigeratorSpecialIssues are always listed first for refrigerators.
var RefrigeratorSpecialIssues = []string{
	IssueLightsNotWorking,
	IssueWaterLeakage,
	IssueDoorNotSealing,
}

var similarToSpecial = []*regexp.Regexp{
	regexp.MustCompile(`light.*not.*(?:working|turning|on|off)`),
	regexp.MustCompile(`(?:lights?|lamp|bulb).*not.*working`),
	regexp.MustCompile(`water.*leak`),
	regexp.MustCompile(`leakage.*water`),
	regexp.MustCompile(`door.*(?:not.*)?seal`),
	regexp.MustCompile(`seal.*door`),
}

// MergeIssues combines repository and generated issues for an appliance type.
// Duplicates are dropped keeping first occurrence, refrigerators get the
// special issues up front with look-alikes removed, and the result is capped.
func MergeIssues(applianceType string, fromRepo, generated []string) []string {
	seen := make(map[string]struct{}, len(fromRepo)+len(generated))
	merged := make([]string, 0, len(fromRepo)+len(generated))
	for _, list := range [][]string{fromRepo, generated} {
		for _, issue := range list {
			issue = strings.TrimSpace(issue)
			if issue == "" {
				continue
			}
			if _, ok := seen[issue]; ok {
				continue
			}
			seen[issue] = struct{}{}
			merged = append(merged, issue)
		}
	}

	if applianceType == RefrigeratorType {
		filtered := make([]string, 0, len(merged)+len(RefrigeratorSpecialIssues))
		filtered = append(filtered, RefrigeratorSpecialIssues...)
		for _, issue := range merged {
			if !resemblesSpecialIssue(issue) {
				filtered = append(filtered, issue)
			}
		}
		merged = filtered
	}

	if len(merged) > MaxListedIssues {
		merged = merged[:MaxListedIssues]
	}
	return merged
}

func resemblesSpecialIssue(issue string) bool {
	lower := strings.ToLower(issue)
	for _, re := range similarToSpecial {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
