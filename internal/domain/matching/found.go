package matching

import "strings"

// IsFound reports whether an assistant answer mentions the brand or the domain.
// Matching is plain case-insensitive substring containment.
func IsFound(answer, brandName, domainName string) bool {
	if answer == "" || brandName == "" {
		return false
	}
	text := strings.ToLower(answer)
	if strings.Contains(text, strings.ToLower(brandName)) {
		return true
	}
	return domainName != "" && strings.Contains(text, strings.ToLower(domainName))
}

// ContainsFold is the case-insensitive substring test shared by the report rules.
func ContainsFold(text, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}
