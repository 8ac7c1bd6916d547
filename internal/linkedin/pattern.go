package linkedin

import (
	"regexp"
	"strings"
)

var (
	// Matches full and bare profile URLs; capture group is the slug
	profileRefPattern = regexp.MustCompile(`linkedin\.com/in/([\w\-]+)`)
	// "@linkedin: handle" shorthand seen in bios
	atHandlePattern = regexp.MustCompile(`(?i)@linkedin:?\s*([\w\-]{3,})`)
	// "LinkedIn: handle" shorthand without a domain
	labelPattern = regexp.MustCompile(`(?i)\blinkedin:\s*([\w\-]{3,})`)
)

// ExtractProfileURL scans a counterpart's website and bio for a LinkedIn
// profile reference. Deterministic: a hit here is more trustworthy than
// anything inferred, so callers stop looking once it matches.
func ExtractProfileURL(bio, website string) (string, bool) {
	if m := profileRefPattern.FindStringSubmatch(website); m != nil {
		return Normalize(m[1]), true
	}
	if m := profileRefPattern.FindStringSubmatch(bio); m != nil {
		return Normalize(m[1]), true
	}
	if m := atHandlePattern.FindStringSubmatch(bio); m != nil {
		return Normalize(m[1]), true
	}
	if m := labelPattern.FindStringSubmatch(bio); m != nil {
		return Normalize(m[1]), true
	}
	return "", false
}

// Normalize renders a slug or any linkedin.com/in reference in canonical
// https://www.linkedin.com/in/<slug> form
func Normalize(ref string) string {
	ref = strings.TrimSpace(ref)
	if m := profileRefPattern.FindStringSubmatch(ref); m != nil {
		ref = m[1]
	}
	ref = strings.Trim(ref, "/")
	return "https://www.linkedin.com/in/" + ref
}

var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:ceo|cto|vp|director|manager|lead|head of|founder)\s+(?:at|@)\s*([^,.|•\n]+)`),
	regexp.MustCompile(`(?i)\b(?:working|work)\s+(?:at|@)\s*([^,.|•\n]+)`),
	regexp.MustCompile(`@([A-Za-z][\w&]+)`),
}

var companySuffix = regexp.MustCompile(`(?i)\s+(inc|llc|corp|ltd|co)\.?$`)

// CompanyFromBio pulls an employer name out of free-form bio text. Used
// only to sharpen discovery prompts, so misses are harmless.
func CompanyFromBio(bio string) string {
	for _, p := range companyPatterns {
		m := p.FindStringSubmatch(bio)
		if m == nil {
			continue
		}
		company := strings.TrimSpace(companySuffix.ReplaceAllString(strings.TrimSpace(m[1]), ""))
		if strings.EqualFold(company, "linkedin") {
			continue
		}
		if len(company) >= 2 && len(company) <= 50 {
			return company
		}
	}
	return ""
}
