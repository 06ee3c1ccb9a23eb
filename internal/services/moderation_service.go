package services

import (
	"regexp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/config"
)

// BannedWords are rejected as whole words, case-insensitively.
var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"ass", "asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"scam", "scammer", "phishing", "malware",
}

const (
	ReasonLanguage    = "inappropriate_language"
	ReasonContactInfo = "contact_info_not_allowed"
	ReasonSpam        = "spam_detected"
	ReasonShouting    = "excessive_caps"
)

type contentRule struct {
	reason string
	re     *regexp.Regexp
}

// ModerationService screens comment text. Sharing e-mail addresses or phone
// numbers in public comments is rejected so deals stay on the marketplace;
// links are allowed because comments routinely point at portfolios.
type ModerationService struct {
	rules    []contentRule
	shouting *regexp.Regexp
}

// ModerationFor returns the comment filter when MODERATE_COMMENTS is on and
// nil otherwise, in which case comments are stored as written.
func ModerationFor(cfg *config.Config) *ModerationService {
	if !cfg.ModerateComments {
		return nil
	}
	return NewModerationService()
}

func NewModerationService() *ModerationService {
	words := make([]string, len(BannedWords))
	for i, w := range BannedWords {
		words[i] = regexp.QuoteMeta(w)
	}

	return &ModerationService{
		rules: []contentRule{
			{ReasonLanguage, regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)},
			{ReasonContactInfo, regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
			{ReasonContactInfo, regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`)},
			{ReasonSpam, regexp.MustCompile(`(?i)(a{5,}|e{5,}|i{5,}|o{5,}|u{5,}|!{5,}|\?{5,}|\.{6,})`)},
		},
		shouting: regexp.MustCompile(`\b[A-Z]{5,}\b`),
	}
}

// FilterContent reports whether text is acceptable and, if not, the reason.
func (ms *ModerationService) FilterContent(text string) (bool, string) {
	if strings.TrimSpace(text) == "" {
		return true, ""
	}
	for _, rule := range ms.rules {
		if rule.re.MatchString(text) {
			return false, rule.reason
		}
	}
	// A couple of acronyms (AWS, GRAPHQL) are fine; whole sentences are not.
	if len(ms.shouting.FindAllString(text, -1)) > 2 {
		return false, ReasonShouting
	}
	return true, ""
}
