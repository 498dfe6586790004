package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	gh "github.com/3leaps/mingwup/internal/host/github"
	"github.com/3leaps/mingwup/internal/model"
)

// TimestampLayout is the format of the feed's updated_at field.
const TimestampLayout = "2006-01-02T15:04:05Z"

const (
	defaultExtension = ".7z"
	defaultMaxPages  = 10
	maxErrorBody     = 512
)

// HTTPClient is the part of *http.Client the fetcher needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Fetcher)

func WithHTTPClient(client HTTPClient) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

func WithURL(u string) Option {
	return func(f *Fetcher) {
		if u != "" {
			f.url = u
		}
	}
}

func WithExtension(ext string) Option {
	return func(f *Fetcher) {
		if ext != "" {
			f.ext = strings.ToLower(ext)
		}
	}
}

func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxPages = n
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

func WithLogger(l hclog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// Fetcher builds a Catalog from the GitHub releases feed. It keeps no state
// between calls: every Fetch hits the network.
type Fetcher struct {
	client    HTTPClient
	url       string
	ext       string
	userAgent string
	maxPages  int
	host      model.HostDescriptor
	logger    hclog.Logger
}

func NewFetcher(host model.HostDescriptor, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    gh.DefaultClient,
		url:       gh.DefaultReleasesURL,
		ext:       defaultExtension,
		userAgent: gh.UserAgent("dev"),
		maxPages:  defaultMaxPages,
		host:      host,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = hclog.L()
	}
	return f
}

// Fetch returns a complete, freshly built catalog or an error. It never
// returns a partially built catalog.
func (f *Fetcher) Fetch(ctx context.Context) (*Catalog, error) {
	f.logger.Info("fetching available versions", "url", f.url)

	var releases []model.Release
	next := withPerPage(f.url)
	for page := 0; next != "" && page < f.maxPages; page++ {
		batch, link, err := f.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		releases = append(releases, batch...)
		next = gh.NextPage(link)
	}
	if next != "" {
		f.logger.Warn("release feed has more pages than fetched", "max_pages", f.maxPages)
	}

	cat, err := f.build(releases)
	if err != nil {
		return nil, err
	}
	f.logger.Info("fetched versions", "releases", len(releases), "archives", cat.Len())
	return cat, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) ([]model.Release, string, error) {
	req, err := gh.NewRequest(ctx, pageURL, f.userAgent)
	if err != nil {
		return nil, "", model.E(model.KindNetwork, "build request", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", model.E(model.KindNetwork, "fetch releases", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", model.Errorf(model.KindNetwork, "fetch releases", "status %d from %s: %s", resp.StatusCode, pageURL, strings.TrimSpace(string(body)))
	}

	var releases []model.Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, "", model.E(model.KindParse, "decode release list", err)
	}
	return releases, resp.Header.Get("Link"), nil
}

func (f *Fetcher) build(releases []model.Release) (*Catalog, error) {
	cat := New()
	for _, rel := range releases {
		for _, asset := range rel.Assets {
			if !strings.HasSuffix(strings.ToLower(asset.Name), f.ext) {
				continue
			}
			ra, err := newReleaseAsset(rel.TagName, asset)
			if err != nil {
				return nil, err
			}
			if !cat.Add(ra) {
				f.logger.Debug("skipping duplicate archive", "version", ra.Version, "file", ra.Filename)
			}
		}
	}
	cat.Recommend(f.host)
	return cat, nil
}

func newReleaseAsset(version string, asset model.Asset) (model.ReleaseAsset, error) {
	published, err := time.Parse(TimestampLayout, asset.UpdatedAt)
	if err != nil {
		return model.ReleaseAsset{}, model.E(model.KindParse, fmt.Sprintf("parse updated_at of %s", asset.Name), err)
	}
	return model.ReleaseAsset{
		Version:     version,
		Filename:    asset.Name,
		DownloadURL: asset.BrowserDownloadUrl,
		PublishedAt: published,
		Size:        asset.Size,
	}, nil
}

func withPerPage(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("per_page") == "" {
		q.Set("per_page", "100")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
