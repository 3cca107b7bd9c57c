package terabox

// ResolvedLink is the outcome of resolving a share URL: a short-lived direct
// CDN URL plus basic metadata. Direct URLs expire upstream, so a ResolvedLink
// is consumed once and never cached.
type ResolvedLink struct {
	DirectURL string
	// DLink is the pre-redirect download URL from share/list; kept as a
	// fallback when the CDN redirect cannot be read.
	DLink     string
	FileName  string
	SizeBytes int64
	ThumbURL  string
}

type shareListResponse struct {
	Errno int             `json:"errno"`
	List  []shareListItem `json:"list"`
}

type shareListItem struct {
	ServerFilename string      `json:"server_filename"`
	Size           int64       `json:"size"`
	DLink          string      `json:"dlink"`
	IsDir          string      `json:"isdir"`
	Thumbs         *itemThumbs `json:"thumbs,omitempty"`
}

type itemThumbs struct {
	URL3 string `json:"url3,omitempty"`
	URL2 string `json:"url2,omitempty"`
	URL1 string `json:"url1,omitempty"`
}
