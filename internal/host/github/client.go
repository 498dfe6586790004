package github

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

const DefaultReleasesURL = "https://api.github.com/repos/niXman/mingw-builds-binaries/releases"

var DefaultTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// DefaultClient has no overall timeout; archive downloads are long and are
// bounded by their context instead.
var DefaultClient = &http.Client{Transport: DefaultTransport}

func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("MINGWUP_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// NewRequest builds a GET request with the headers the GitHub API expects.
// The token is only attached for github.com hosts.
func NewRequest(ctx context.Context, url, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if strings.Contains(url, "api.github.com") {
		req.Header.Set("Accept", "application/vnd.github+json")
	}
	if tok := TokenFromEnv(); tok != "" && strings.Contains(url, "github.com") {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func UserAgent(version string) string {
	return fmt.Sprintf("mingwup/%s", version)
}

var linkNextRe = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="?next"?`)

// NextPage extracts the rel="next" URL from a Link header, or "".
func NextPage(link string) string {
	for _, part := range strings.Split(link, ",") {
		if m := linkNextRe.FindStringSubmatch(part); m != nil {
			return m[1]
		}
	}
	return ""
}
