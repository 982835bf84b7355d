package agentstub

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent is what the stub extracts from a request description: the service
// wanted, where, and an optional budget cap.
type Intent struct {
	Service string
	City    string
	Budget  float64
}

// serviceKeywords maps request vocabulary to the directory's service keys.
// Order matters only within a service; the first service with any keyword
// hit wins, scanning in a fixed order so parsing stays deterministic.
var serviceKeywords = []struct {
	service  string
	keywords []string
}{
	{"landscaping", []string{"landscap", "lawn", "yard", "mow", "garden"}},
	{"painting", []string{"paint"}},
	{"cleaning", []string{"clean", "maid"}},
	{"handyman", []string{"handyman", "repair", "fix", "install"}},
}

var budgetPattern = regexp.MustCompile(`\$\s*(\d+(?:\.\d+)?)|(?:under|below|budget of|max(?:imum)? of)\s+\$?(\d+(?:\.\d+)?)`)

// ParseIntent extracts the service type, city, and budget from a free-text
// request by keyword and pattern match. Anything it cannot determine is left
// zero; the directory lookup treats unknowns as no match.
func ParseIntent(description string) Intent {
	lower := strings.ToLower(description)

	var intent Intent

	for _, entry := range serviceKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				intent.Service = entry.service
				break
			}
		}
		if intent.Service != "" {
			break
		}
	}

	for _, city := range knownCities() {
		if strings.Contains(lower, city) {
			intent.City = city
			break
		}
	}

	if m := budgetPattern.FindStringSubmatch(lower); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			intent.Budget = v
		}
	}

	return intent
}
