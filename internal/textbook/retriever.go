// Package textbook retrieves reference material linked from a notebook so
// it can be prepended to the tutoring context.
package textbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/alexanderramin/jupytutor/internal/notebook"
)

var (
	// ErrPending is returned when the caller's context ends before retrieval
	// finishes. Retrieval continues in the background and later calls see
	// its result.
	ErrPending = errors.New("textbook retrieval pending")

	// ErrFetch indicates that no linked page could be retrieved.
	ErrFetch = errors.New("textbook fetch failed")
)

// Retriever supplies textbook context for one notebook.
type Retriever interface {
	// Context returns the combined text of the linked material. It is
	// computed at most once per notebook and cached.
	Context(ctx context.Context) (string, error)
	// SourceLinks returns the links the context is built from.
	SourceLinks() []string
}

// ContextOrEmpty returns the retriever's context, or "" when retrieval is
// pending or failed.
func ContextOrEmpty(ctx context.Context, r Retriever, logger *slog.Logger) string {
	if r == nil {
		return ""
	}
	text, err := r.Context(ctx)
	if err != nil {
		if logger != nil {
			logger.Warn("textbook context unavailable", "error", err)
		}
		return ""
	}
	return text
}

// Static is a Retriever with fixed content.
type Static struct {
	Text  string
	Links []string
}

func (s Static) Context(context.Context) (string, error) { return s.Text, nil }

func (s Static) SourceLinks() []string { return slices.Clone(s.Links) }

const (
	defaultMaxPages     = 8
	defaultMaxChars     = 60_000
	defaultFetchTimeout = 15 * time.Second
	defaultCacheTTL     = time.Hour
	defaultConcurrency  = 4
	maxBodyBytes        = 4 << 20
	userAgent           = "jupytutor-textbook/1.0"
)

// Options controls link selection and fetching. Zero values take defaults.
type Options struct {
	Whitelist []string
	Blacklist []string

	// JupyterBookHost enables chapter expansion for links on that host.
	JupyterBookHost string
	LinkExpansion   bool

	MaxPages     int
	MaxChars     int
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	Concurrency  int
}

// DefaultOptions returns the limits used when a field is left zero.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = defaultMaxPages
	}
	if o.MaxChars <= 0 {
		o.MaxChars = defaultMaxChars
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = defaultFetchTimeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = defaultCacheTTL
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	return o
}

// Service fetches and caches textbook context across notebooks. Concurrent
// requests for the same notebook share one retrieval.
type Service struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
	cache  *cache.Cache
	group  singleflight.Group
}

// NewService creates a Service. A nil client uses http.DefaultClient and a
// nil logger discards output.
func NewService(opts Options, client *http.Client, logger *slog.Logger) *Service {
	opts = opts.withDefaults()
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		opts:   opts,
		client: client,
		logger: logger,
		cache:  cache.New(opts.CacheTTL, 2*opts.CacheTTL),
	}
}

// ForNotebook returns the Retriever for nb's filtered links.
func (s *Service) ForNotebook(nb *notebook.Notebook) Retriever {
	links := FilterLinks(nb.Links(), s.opts.Whitelist, s.opts.Blacklist)
	return &notebookRetriever{
		svc:   s,
		key:   nb.Path + "\x00" + strings.Join(links, "\x00"),
		links: links,
	}
}

type notebookRetriever struct {
	svc   *Service
	key   string
	links []string
}

func (r *notebookRetriever) SourceLinks() []string { return slices.Clone(r.links) }

func (r *notebookRetriever) Context(ctx context.Context) (string, error) {
	return r.svc.context(ctx, r.key, r.links)
}

func (s *Service) context(ctx context.Context, key string, links []string) (string, error) {
	if len(links) == 0 {
		return "", nil
	}
	if v, ok := s.cache.Get(key); ok {
		return v.(string), nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
		// Detached so a short caller deadline does not abort the shared fetch.
		text, err := s.build(context.WithoutCancel(ctx), links)
		if err != nil {
			s.logger.Warn("textbook retrieval failed", "links", len(links), "error", err)
			s.cache.Set(key, "", cache.DefaultExpiration)
			return "", err
		}
		s.cache.Set(key, text, cache.DefaultExpiration)
		s.logger.Debug("textbook retrieved", "links", len(links), "chars", len(text))
		return text, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrPending, ctx.Err())
	}
}

type fetched struct {
	url  string
	page page
	err  error
}

func (s *Service) build(ctx context.Context, links []string) (string, error) {
	if len(links) > s.opts.MaxPages {
		links = links[:s.opts.MaxPages]
	}
	results := s.fetchAll(ctx, links)

	if s.opts.LinkExpansion && s.opts.JupyterBookHost != "" {
		seen := make(map[string]bool, len(links))
		for _, l := range links {
			seen[l] = true
		}
		var extra []string
		for _, r := range results {
			if r.err != nil || !matchesAnyDomain(hostOf(r.url), []string{s.opts.JupyterBookHost}) {
				continue
			}
			for _, l := range r.page.Links {
				if len(links)+len(extra) >= s.opts.MaxPages {
					break
				}
				if !seen[l] && sameSection(r.url, l) {
					seen[l] = true
					extra = append(extra, l)
				}
			}
		}
		results = append(results, s.fetchAll(ctx, extra)...)
	}

	var b strings.Builder
	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if r.page.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Source: " + r.url + "\n")
		if r.page.Title != "" {
			b.WriteString("# " + r.page.Title + "\n")
		}
		b.WriteString(r.page.Text)
	}

	if b.Len() == 0 && len(errs) > 0 {
		return "", fmt.Errorf("%w: %w", ErrFetch, errors.Join(errs...))
	}
	return truncate(b.String(), s.opts.MaxChars), nil
}

func (s *Service) fetchAll(ctx context.Context, links []string) []fetched {
	results := make([]fetched, len(links))
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, link := range links {
		g.Go(func() error {
			p, err := s.fetch(ctx, link)
			results[i] = fetched{url: link, page: p, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) fetch(ctx context.Context, link string) (page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return page{}, fmt.Errorf("%s: %w", link, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html, text/plain;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("%s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page{}, fmt.Errorf("%s: status %d", link, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "text/plain":
		data, err := io.ReadAll(body)
		if err != nil {
			return page{}, fmt.Errorf("%s: %w", link, err)
		}
		return page{Text: strings.TrimSpace(string(data))}, nil
	case mediaType == "" || strings.Contains(mediaType, "html"):
		base, _ := url.Parse(link)
		p, err := parsePage(body, base)
		if err != nil {
			return page{}, fmt.Errorf("%s: %w", link, err)
		}
		return p, nil
	}
	return page{}, fmt.Errorf("%s: unsupported content type %q", link, mediaType)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
