package terabox

import "testing"

func TestFindShareURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.terabox.com/s/1abcDEF", "https://www.terabox.com/s/1abcDEF"},
		{"check this out https://terabox.app/s/1abcDEF please", "https://terabox.app/s/1abcDEF"},
		{"https://1024tera.com/sharing/link?surl=xyz", "https://1024tera.com/sharing/link?surl=xyz"},
		{"https://teraboxapp.com/s/1abcDEF.", "https://teraboxapp.com/s/1abcDEF"},
		{"https://example.com/s/1abcDEF", ""},
		{"no links here", ""},
	}
	for _, tc := range cases {
		if got := FindShareURL(tc.in); got != tc.want {
			t.Errorf("FindShareURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsShareURL_Mirrors(t *testing.T) {
	mirrors := []string{
		"https://mirrobox.com/s/1x",
		"https://nephobox.com/s/1x",
		"https://freeterabox.com/s/1x",
		"https://4funbox.com/s/1x",
		"https://terabox.fun/s/1x",
		"https://tibibox.com/s/1x",
		"https://momerybox.com/s/1x",
		"https://teraboxlink.com/s/1x",
	}
	for _, m := range mirrors {
		if !IsShareURL(m) {
			t.Errorf("IsShareURL(%q) = false, want true", m)
		}
	}
}

func TestExtractShortCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.terabox.com/s/1abcDEF", "1abcDEF"},
		{"https://www.terabox.com/sharing/link?surl=xyz123", "xyz123"},
		{"https://www.terabox.com/wap/share/filelist?surl=abc", "abc"},
		{"https://www.terabox.com/", ""},
	}
	for _, tc := range cases {
		if got := extractShortCode(tc.in); got != tc.want {
			t.Errorf("extractShortCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeShareURL(t *testing.T) {
	got := normalizeShareURL("https://teraboxlink.com/s/1x")
	if got != "https://terabox.com/s/1x" {
		t.Fatalf("normalize: got %q", got)
	}
}

func TestFindBetween(t *testing.T) {
	if got := findBetween("a=1&dp-logid=777&b=2", "dp-logid=", "&"); got != "777" {
		t.Fatalf("findBetween: got %q", got)
	}
	if got := findBetween("nothing", "dp-logid=", "&"); got != "" {
		t.Fatalf("findBetween miss: got %q", got)
	}
}
