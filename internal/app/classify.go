package app

import (
	"strings"

	"reviewharvest/internal/domain"
)

// securityKeywords is the fixed term list used to flag reviews as relevant to
// a security/privacy analysis. Matching is plain case-insensitive substring,
// partial-word hits included; the list is a maintained constant, not
// user-configurable.
var securityKeywords = []string{
	"security", "privacy", "secure", "private", "data", "password",
	"login", "account", "hack", "breach", "steal", "fraud", "scam",
	"phishing", "malware", "virus", "encrypt", "decrypt", "biometric",
	"fingerprint", "face id", "two factor", "2fa", "authentication",
	"permissions", "access", "tracking", "surveillance", "leak",
}

// IsSecurityRelated reports whether content mentions any keyword. Empty
// content never matches.
func IsSecurityRelated(content string) bool {
	if content == "" {
		return false
	}
	lower := strings.ToLower(content)
	for _, kw := range securityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Classify sets the security flag on every review in place and returns the
// flagged count. Re-running over the same rows yields the same flags; no
// other field is touched.
func Classify(rs []domain.Review) int {
	flagged := 0
	for i := range rs {
		rs[i].IsSecurityRelated = IsSecurityRelated(rs[i].Content)
		if rs[i].IsSecurityRelated {
			flagged++
		}
	}
	return flagged
}
