package catalog

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"github.com/GriffinCanCode/taskdock/internal/shared/cache"
	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// catalogFile is the metadata document published at each store root
const catalogFile = "catalog.json"

// Fetcher retrieves a remote document
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Config names the remote roots and the dashboard's own package name
type Config struct {
	CLIURL    string
	WebURL    string
	ExtrasURL string
	SelfName  string
}

// Client reads package listings and metadata from the remote store.
// Every fetch goes through the shared remote cache.
type Client struct {
	cfg       Config
	fetcher   Fetcher
	cache     *cache.TTL[[]byte]
	sanitizer *bluemonday.Policy
	log       *zap.Logger
}

// New creates a catalog client
func New(cfg Config, fetcher Fetcher, remote *cache.TTL[[]byte], log *zap.Logger) *Client {
	return &Client{
		cfg:       cfg,
		fetcher:   fetcher,
		cache:     remote,
		sanitizer: bluemonday.StrictPolicy(),
		log:       logging.OrNop(log),
	}
}

// Root returns the remote root for kind
func (c *Client) Root(kind types.Kind) (string, error) {
	switch kind {
	case types.KindCLI:
		return c.cfg.CLIURL, nil
	case types.KindWeb:
		return c.cfg.WebURL, nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}
}

// PackageURL joins a package file name onto the root for kind
func (c *Client) PackageURL(file string, kind types.Kind) (string, error) {
	root, err := c.Root(kind)
	if err != nil {
		return "", err
	}
	return url.JoinPath(root, file)
}

// Packages lists the archives published for kind. Duplicates are dropped and
// listing order is kept.
func (c *Client) Packages(ctx context.Context, kind types.Kind) ([]types.Package, error) {
	root, err := c.Root(kind)
	if err != nil {
		return nil, err
	}

	body, err := c.fetch(ctx, listingKey(kind), root)
	if err != nil {
		return nil, err
	}

	files := parseListing(body, paths.ArchiveExtensions...)
	packages := make([]types.Package, 0, len(files))
	for _, file := range files {
		name, _ := paths.TrimArchiveExt(file)
		packages = append(packages, types.Package{File: file, Name: name})
	}
	return packages, nil
}

// Available lists packages for kind that are not installed. The dashboard's
// own package is never offered.
func (c *Client) Available(ctx context.Context, kind types.Kind, installed []string) ([]types.Package, error) {
	packages, err := c.Packages(ctx, kind)
	if err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(installed)+1)
	for _, name := range installed {
		skip[name] = struct{}{}
	}
	if c.cfg.SelfName != "" {
		skip[c.cfg.SelfName] = struct{}{}
	}

	available := packages[:0:0]
	for _, pkg := range packages {
		if _, ok := skip[pkg.Name]; ok {
			continue
		}
		available = append(available, pkg)
	}
	return available, nil
}

type catalogDocument struct {
	Apps map[string]types.CatalogEntry `json:"apps"`
}

// Catalog returns the published metadata for kind keyed by app name.
// A catalog that fails to decode yields an empty map.
func (c *Client) Catalog(ctx context.Context, kind types.Kind) (map[string]types.CatalogEntry, error) {
	root, err := c.Root(kind)
	if err != nil {
		return nil, err
	}
	catalogURL, err := url.JoinPath(root, catalogFile)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog url: %w", err)
	}

	body, err := c.fetch(ctx, "catalog_"+string(kind), catalogURL)
	if err != nil {
		return nil, err
	}

	var doc catalogDocument
	if err := sonic.Unmarshal(body, &doc); err != nil {
		c.log.Warn("Malformed catalog", zap.String("url", catalogURL), zap.Error(err))
		return map[string]types.CatalogEntry{}, nil
	}

	entries := make(map[string]types.CatalogEntry, len(doc.Apps))
	for name, entry := range doc.Apps {
		entries[name] = c.sanitize(entry)
	}
	return entries, nil
}

// Describe returns the catalog entry for one app
func (c *Client) Describe(ctx context.Context, name string, kind types.Kind) (types.CatalogEntry, bool) {
	entries, err := c.Catalog(ctx, kind)
	if err != nil {
		c.log.Debug("Catalog unavailable", zap.String("app", name), zap.String("kind", string(kind)), zap.Error(err))
		return types.CatalogEntry{}, false
	}
	entry, ok := entries[name]
	return entry, ok
}

func (c *Client) fetch(ctx context.Context, key, url string) ([]byte, error) {
	return c.cache.GetOrFetch(key, func() ([]byte, error) {
		return c.fetcher.Get(ctx, url)
	})
}

func (c *Client) sanitize(e types.CatalogEntry) types.CatalogEntry {
	// The strict policy escapes what it keeps; values are plain text, not HTML
	clean := func(s string) string {
		return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
	}

	e.Name = clean(e.Name)
	e.Description = clean(e.Description)
	e.Version = clean(e.Version)
	e.Author = clean(e.Author)
	e.Category = clean(e.Category)
	e.Icon = clean(e.Icon)
	if len(e.Requirements) > 0 {
		reqs := make([]string, 0, len(e.Requirements))
		for _, r := range e.Requirements {
			if r = clean(r); r != "" {
				reqs = append(reqs, r)
			}
		}
		e.Requirements = reqs
	}
	return e
}

func listingKey(kind types.Kind) string {
	if kind == types.KindWeb {
		return "available_web_apps"
	}
	return "available_cli_zips"
}
