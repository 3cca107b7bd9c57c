package terabox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"terabox-telegram-bot/internal/fault"
)

const defaultAPIBase = "https://www.terabox.app"

// Browser-ish UA; the share page serves a stripped variant to unknown agents.
const userAgent = "Mozilla/5.0 (Linux; Android 11; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0 Mobile Safari/537.36"

// Client resolves TeraBox share URLs into direct download links.
//
// Flow per Resolve call:
//  1. GET the share page to harvest jsToken + dp-logid + the short code.
//  2. GET /share/list to obtain the first file's dlink and metadata.
//  3. HEAD the dlink without following redirects; the Location header is
//     the direct CDN URL.
//
// Each call is independent; direct URLs expire, so nothing is cached.
type Client struct {
	cookie  string
	apiBase string
	http    *http.Client
	// headClient never follows redirects; we want the Location header itself.
	headClient *http.Client
}

type ClientOpts struct {
	// Cookie is the session cookie header value ("lang=..; ndus=..;").
	Cookie  string
	Timeout time.Duration

	// APIBase overrides the share/list host. Tests only.
	APIBase string
}

func NewClient(opts ClientOpts) (*Client, error) {
	cookie := strings.TrimSpace(opts.Cookie)
	if cookie == "" {
		return nil, errors.New("cookie is empty")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	apiBase := strings.TrimSuffix(strings.TrimSpace(opts.APIBase), "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}

	return &Client{
		cookie:  cookie,
		apiBase: apiBase,
		http: &http.Client{
			Timeout: timeout,
		},
		headClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Resolve turns a share URL into a ResolvedLink. Callers route messages with
// FindShareURL first; Resolve itself only cares that the page yields the
// share parameters. Failures are classified: malformed/private links are
// InvalidLink, a rejected cookie is ExpiredSession, everything else upstream
// is UpstreamError.
func (c *Client) Resolve(ctx context.Context, shareURL string) (ResolvedLink, error) {
	shareURL = strings.TrimSpace(shareURL)
	if shareURL == "" {
		return ResolvedLink{}, fault.Errorf(fault.InvalidLink, "empty share url")
	}
	shareURL = normalizeShareURL(shareURL)

	page, finalURL, err := c.fetchSharePage(ctx, shareURL)
	if err != nil {
		return ResolvedLink{}, err
	}

	logid := findBetween(page, "dp-logid=", "&")
	jsToken := findBetween(page, `fn%28%22`, `%22%29`)
	short := extractShortCode(finalURL)
	if short == "" {
		short = extractShortCode(shareURL)
	}
	if short == "" || logid == "" || jsToken == "" {
		return ResolvedLink{}, fault.Errorf(fault.InvalidLink,
			"share page missing parameters (short=%v logid=%v jsToken=%v), link may be private",
			short != "", logid != "", jsToken != "")
	}

	item, err := c.fetchShareList(ctx, short, logid, jsToken)
	if err != nil {
		return ResolvedLink{}, err
	}

	link := ResolvedLink{
		DLink:     item.DLink,
		FileName:  item.ServerFilename,
		SizeBytes: item.Size,
	}
	if link.FileName == "" {
		link.FileName = "file"
	}
	if item.Thumbs != nil {
		link.ThumbURL = item.Thumbs.URL3
	}

	// Best effort: dlink still works if the HEAD fails.
	link.DirectURL = c.resolveRedirect(ctx, item.DLink)
	if link.DirectURL == "" {
		link.DirectURL = item.DLink
	}
	return link, nil
}

func (c *Client) fetchSharePage(ctx context.Context, shareURL string) (body string, finalURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shareURL, nil)
	if err != nil {
		return "", "", fault.Errorf(fault.InvalidLink, "build share page request: %v", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fault.Errorf(fault.UpstreamError, "fetch share page: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fault.Errorf(fault.UpstreamError, "share page status %d", resp.StatusCode)
	}

	// Share pages are a few hundred KB; 8MB leaves headroom without letting
	// a hostile response eat memory.
	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", "", fault.Errorf(fault.UpstreamError, "read share page: %v", err)
	}

	final := shareURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return string(b), final, nil
}

func (c *Client) fetchShareList(ctx context.Context, short, logid, jsToken string) (shareListItem, error) {
	q := url.Values{}
	q.Set("app_id", "250528")
	q.Set("web", "1")
	q.Set("channel", "0")
	q.Set("jsToken", jsToken)
	q.Set("dp-logid", logid)
	q.Set("page", "1")
	q.Set("num", "20")
	q.Set("by", "name")
	q.Set("order", "asc")
	q.Set("shorturl", short)
	q.Set("root", "1")

	listURL := c.apiBase + "/share/list?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return shareListItem{}, fault.Errorf(fault.UpstreamError, "build share/list request: %v", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return shareListItem{}, fault.Errorf(fault.UpstreamError, "fetch share/list: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return shareListItem{}, fault.Errorf(fault.UpstreamError, "share/list status %d", resp.StatusCode)
	}

	var out shareListResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil {
		return shareListItem{}, fault.Errorf(fault.UpstreamError, "decode share/list: %v", err)
	}

	if out.Errno != 0 {
		return shareListItem{}, classifyErrno(out.Errno)
	}
	if len(out.List) == 0 {
		return shareListItem{}, fault.Errorf(fault.InvalidLink, "share contains no files")
	}

	item := out.List[0]
	if strings.TrimSpace(item.DLink) == "" {
		return shareListItem{}, fault.Errorf(fault.InvalidLink, "no downloadable link exposed, share may be private")
	}
	return item, nil
}

func (c *Client) resolveRedirect(ctx context.Context, dlink string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, dlink, nil)
	if err != nil {
		return ""
	}
	c.setHeaders(req)

	resp, err := c.headClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	return resp.Header.Get("Location")
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cookie", c.cookie)
}

// classifyErrno maps TeraBox API error codes onto the taxonomy.
// -6 is "not logged in" (stale ndus cookie); -9 and 2 cover missing or
// malformed shares; everything else is upstream's problem.
func classifyErrno(errno int) error {
	switch errno {
	case -6:
		return fault.Errorf(fault.ExpiredSession, "terabox errno=%d (session rejected)", errno)
	case -9, 2, -3:
		return fault.Errorf(fault.InvalidLink, "terabox errno=%d (share not found)", errno)
	default:
		return fault.Errorf(fault.UpstreamError, "terabox errno=%d", errno)
	}
}
