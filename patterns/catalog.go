package patterns

import "regexp"

// Category classifies a detection rule. The set is closed; tags arriving
// from outside it fall back to CategoryUnknown for weighting.
type Category string

const (
	CategoryCredentials Category = "credentials"
	CategoryFinancial   Category = "financial"
	CategoryPersonal    Category = "personal"
	CategoryNetwork     Category = "network"
	CategoryUnknown     Category = "unknown"
)

// Risk weights per category. A category's contribution is capped at three
// matches so one noisy category cannot dominate the 0-100 scale alone.
var categoryWeights = map[Category]int{
	CategoryCredentials: 30,
	CategoryFinancial:   40,
	CategoryPersonal:    15,
	CategoryNetwork:     10,
}

const (
	unknownCategoryWeight = 5
	perCategoryCap        = 3
	maxRiskScore          = 100
)

// Weight returns the risk weight for a category, defaulting to the
// unknown weight for unrecognized tags.
func Weight(category Category) int {
	if w, ok := categoryWeights[category]; ok {
		return w
	}
	return unknownCategoryWeight
}

// Rule pairs a case-insensitive matcher with its category and a
// human-readable description. Tokens are lowercase literal anchors used by
// the prefilter; a rule without tokens is evaluated against every entry.
type Rule struct {
	Category    Category
	Name        string
	Description string
	Tokens      []string
	re          *regexp.Regexp
}

// DefaultCatalog returns the built-in rule set.
func DefaultCatalog() []Rule {
	return []Rule{
		{CategoryCredentials, "password", "Password detected", []string{"password", "pwd", "pass"},
			regexp.MustCompile(`(?i)(password|pwd|pass)\s*[:=]\s*\S+`)},
		{CategoryCredentials, "api_key", "API key detected", []string{"api"},
			regexp.MustCompile(`(?i)api[_-]?key\s*[:=]\s*\S+`)},
		{CategoryCredentials, "token", "Token detected", []string{"token"},
			regexp.MustCompile(`(?i)token\s*[:=]\s*[a-zA-Z0-9+/=._-]+`)},
		{CategoryCredentials, "secret", "Secret detected", []string{"secret"},
			regexp.MustCompile(`(?i)secret\s*[:=]\s*\S+`)},

		{CategoryFinancial, "credit_card", "Credit card number", nil,
			regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)},
		{CategoryFinancial, "ssn", "Social Security Number", nil,
			regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
		{CategoryFinancial, "cvv", "CVV code", []string{"cvv"},
			regexp.MustCompile(`(?i)cvv\s*[:=]?\s*\d{3,4}`)},

		{CategoryPersonal, "email", "Email address", []string{"@"},
			regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
		{CategoryPersonal, "phone", "Phone number", nil,
			regexp.MustCompile(`\b\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)},
		{CategoryPersonal, "ip_address", "IP address", nil,
			regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)},

		{CategoryNetwork, "url", "URL", []string{"http"},
			regexp.MustCompile(`(?i)https?://\S+`)},
		{CategoryNetwork, "unc_path", "Network path", []string{`\\`},
			regexp.MustCompile(`\\\\\S+`)},
		{CategoryNetwork, "local_path", "Local file path", []string{`:\`},
			regexp.MustCompile(`\b[A-Za-z]:\\\S+`)},
	}
}
