package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var valueNumberRe = regexp.MustCompile(`[\d.]+`)

// ParseValueMillions parses a scraped estimated-value string into
// millions of dollars. "$2.5 million" and "$2.5M" parse as 2.5,
// "$1.2 billion" as 1200, "$500K" as 0.5, and a bare "$3,500,000"
// as 3.5. Anything unparseable is 0 so a bad cell never sinks a lead.
func ParseValueMillions(s string) float64 {
	cleaned := strings.ToLower(strings.TrimSpace(s))
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	if cleaned == "" {
		return 0
	}

	match := valueNumberRe.FindString(cleaned)
	if match == "" {
		return 0
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	switch {
	case strings.Contains(cleaned, "billion") || strings.HasSuffix(cleaned, "b"):
		return n * 1000
	case strings.Contains(cleaned, "million") || strings.HasSuffix(cleaned, "m"):
		return n
	case strings.Contains(cleaned, "thousand") || strings.HasSuffix(cleaned, "k"):
		return n / 1000
	default:
		return n / 1e6
	}
}
