package terabox

import (
	"net/url"
	"regexp"
	"strings"
)

// TeraBox runs a zoo of mirror domains; all serve the same share API.
var shareURLRE = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:mirrobox\.com|nephobox\.com|freeterabox\.com|1024tera\.com|1024terabox\.com|terabox\.com|4funbox\.com|terabox\.app|terabox\.fun|tibibox\.com|momerybox\.com|teraboxapp\.com|teraboxlink\.com)/\S+`)

// FindShareURL returns the first TeraBox share URL in text, or "".
func FindShareURL(text string) string {
	return strings.TrimRight(shareURLRE.FindString(text), ".,!?;:)")
}

// IsShareURL reports whether raw points at a known TeraBox domain.
func IsShareURL(raw string) bool {
	return shareURLRE.MatchString(raw)
}

// normalizeShareURL maps mirror domains onto terabox.com so the share page
// request lands on a host that still exposes jsToken/dp-logid.
func normalizeShareURL(raw string) string {
	replacements := []string{
		"teraboxlink.com", "terabox.com",
		"teraboxapp.com", "terabox.com",
		"1024terabox.com", "1024tera.com",
	}
	for i := 0; i+1 < len(replacements); i += 2 {
		raw = strings.Replace(raw, replacements[i], replacements[i+1], 1)
	}
	return raw
}

// extractShortCode pulls the share code from /s/<code> paths or ?surl=<code>
// query strings. Returns "" when neither form is present.
func extractShortCode(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(u.Path, "/")
	for i, p := range parts {
		if p == "s" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	if code := u.Query().Get("surl"); code != "" {
		return code
	}
	return ""
}

// findBetween returns the substring of hay between left and right, or "".
func findBetween(hay, left, right string) string {
	i := strings.Index(hay, left)
	if i < 0 {
		return ""
	}
	i += len(left)
	j := strings.Index(hay[i:], right)
	if j < 0 {
		return ""
	}
	return hay[i : i+j]
}
