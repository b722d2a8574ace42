package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/GriffinCanCode/taskdock/internal/providers/http/client"
	"github.com/GriffinCanCode/taskdock/internal/shared/cache"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliListing = `<html><body><h1>Index of /bins/</h1>
<a href="../">../</a>
<a href="nano.zip">nano.zip</a>
<a href='/bins/htop.zip'>htop.zip</a>
<a href="catalog.json">catalog.json</a>
<a href="nano.zip">nano.zip</a>
<a href="taskapp.zip">taskapp.zip</a>
<a href="jq.tar.gz?dl=1">jq.tar.gz</a>
</body></html>`

const webListing = `<a href="weatherapp.zip">weatherapp.zip</a><a href="notes.zip">notes.zip</a>`

const extrasListing = `<a href="RetroArch.apk">RetroArch.apk</a>
<a href="FileManager.apk">FileManager.apk</a>
<a href="Something.apk">Something.apk</a>
<a href="readme.txt">readme.txt</a>`

const cliCatalog = `{"apps": {
  "nano": {"name": "Nano", "description": "A <b>small</b> editor", "version": "7.2",
           "author": "GNU", "category": "Editors", "icon": "nano.png",
           "requirements": ["<i>none</i>"]},
  "htop": {"name": "htop", "description": "Process viewer"},
  "tips": {"description": "Tips & tricks <script>x</script>for a<b", "icon": "icon.php?a=1&b=2",
           "requirements": ["requests>=2.0", "flask<3"]}
}}`

type store struct {
	hits   atomic.Int32
	broken atomic.Bool
	server *httptest.Server
}

func newStore(t *testing.T) *store {
	s := &store{}
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s.hits.Add(1)
			if s.broken.Load() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/bins/", serve(cliListing))
	mux.HandleFunc("/bins/catalog.json", serve(cliCatalog))
	mux.HandleFunc("/apps/", serve(webListing))
	mux.HandleFunc("/apps/catalog.json", serve(`{"apps": "not an object"}`))
	mux.HandleFunc("/apks/", serve(extrasListing))

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newClient(t *testing.T, s *store, clock *testClock) *Client {
	remote := cache.New[[]byte](5 * time.Minute).WithClock(clock.Now)
	fetcher := client.New(client.Config{Timeout: 2 * time.Second}, nil)
	return New(Config{
		CLIURL:    s.server.URL + "/bins/",
		WebURL:    s.server.URL + "/apps/",
		ExtrasURL: s.server.URL + "/apks/",
		SelfName:  "taskapp",
	}, fetcher, remote, nil)
}

func TestPackages(t *testing.T) {
	s := newStore(t)
	c := newClient(t, s, &testClock{now: time.Now()})

	packages, err := c.Packages(context.Background(), types.KindCLI)
	require.NoError(t, err)

	assert.Equal(t, []types.Package{
		{File: "nano.zip", Name: "nano"},
		{File: "htop.zip", Name: "htop"},
		{File: "taskapp.zip", Name: "taskapp"},
		{File: "jq.tar.gz", Name: "jq"},
	}, packages)
}

func TestAvailableExcludesInstalledAndSelf(t *testing.T) {
	s := newStore(t)
	c := newClient(t, s, &testClock{now: time.Now()})

	packages, err := c.Available(context.Background(), types.KindCLI, []string{"htop"})
	require.NoError(t, err)

	var names []string
	for _, p := range packages {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"nano", "jq"}, names)
}

func TestPackagesServedFromCache(t *testing.T) {
	s := newStore(t)
	clock := &testClock{now: time.Now()}
	c := newClient(t, s, clock)
	ctx := context.Background()

	_, err := c.Packages(ctx, types.KindWeb)
	require.NoError(t, err)
	_, err = c.Packages(ctx, types.KindWeb)
	require.NoError(t, err)
	assert.Equal(t, int32(1), s.hits.Load())

	// Store goes down after expiry: the stale listing is served
	s.broken.Store(true)
	clock.now = clock.now.Add(6 * time.Minute)

	packages, err := c.Packages(ctx, types.KindWeb)
	require.NoError(t, err)
	assert.Len(t, packages, 2)
	assert.Equal(t, int32(2), s.hits.Load())
}

func TestPackagesNoHistory(t *testing.T) {
	s := newStore(t)
	s.broken.Store(true)
	c := newClient(t, s, &testClock{now: time.Now()})

	_, err := c.Packages(context.Background(), types.KindCLI)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cache.ErrNoValue))
}

func TestUnknownKind(t *testing.T) {
	s := newStore(t)
	c := newClient(t, s, &testClock{now: time.Now()})

	_, err := c.Packages(context.Background(), types.Kind("apk"))
	assert.ErrorIs(t, err, types.ErrUnknownKind)
}

func TestCatalogSanitisesEntries(t *testing.T) {
	s := newStore(t)
	c := newClient(t, s, &testClock{now: time.Now()})

	entry, ok := c.Describe(context.Background(), "nano", types.KindCLI)
	require.True(t, ok)

	assert.Equal(t, "Nano", entry.Name)
	assert.Equal(t, "A small editor", entry.Description)
	assert.Equal(t, "7.2", entry.Version)
	assert.Equal(t, "nano.png", entry.Icon)
	assert.Equal(t, []string{"none"}, entry.Requirements)

	tips, ok := c.Describe(context.Background(), "tips", types.KindCLI)
	require.True(t, ok)
	assert.Equal(t, "icon.php?a=1&b=2", tips.Icon)
	assert.Equal(t, []string{"requests>=2.0", "flask<3"}, tips.Requirements)
	assert.True(t, strings.HasPrefix(tips.Description, "Tips & tricks"))
	assert.NotContains(t, tips.Description, "<script>")

	_, ok = c.Describe(context.Background(), "missing", types.KindCLI)
	assert.False(t, ok)
}

func TestMalformedCatalogIsEmpty(t *testing.T) {
	s := newStore(t)
	c := newClient(t, s, &testClock{now: time.Now()})

	entries, err := c.Catalog(context.Background(), types.KindWeb)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, ok := c.Describe(context.Background(), "weatherapp", types.KindWeb)
	assert.False(t, ok)
}

func TestExtras(t *testing.T) {
	s := newStore(t)
	c := newClient(t, s, &testClock{now: time.Now()})

	extras, err := c.Extras(context.Background())
	require.NoError(t, err)
	require.Len(t, extras, 3)

	assert.Equal(t, "RetroArch", extras[0].Name)
	assert.Equal(t, "Emulator", extras[0].Category)
	assert.Equal(t, s.server.URL+"/apks/RetroArch.apk", extras[0].URL)
	assert.Equal(t, "Utility", extras[1].Category)
	assert.Equal(t, "Utility", extras[2].Category)
}

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"SuperRetro":     "Emulator",
		"NovaLauncher":   "Launcher",
		"FirefoxLite":    "Browser",
		"PdfViewer":      "Productivity",
		"TextEditor":     "Productivity", // editor matches Productivity before Coding
		"Telegram":       "Communications",
		"GitTouch":       "Coding",
		"PuzzleQuest":    "Game",
		"Unclassifiable": "Utility",
	}
	for name, want := range tests {
		assert.Equal(t, want, Categorize(name), name)
	}
}

func TestParseListingIgnoresGarbage(t *testing.T) {
	assert.Empty(t, parseListing([]byte("not html at all"), ".zip"))
	assert.Equal(t, []string{"a.zip"}, parseListing([]byte(`<a href="dir/a.zip">x</a><a>no href</a>`), ".zip"))
}

func TestPackageURL(t *testing.T) {
	s := newStore(t)
	c := newClient(t, s, &testClock{now: time.Now()})

	u, err := c.PackageURL("weatherapp.zip", types.KindWeb)
	require.NoError(t, err)
	assert.Equal(t, s.server.URL+"/apps/weatherapp.zip", u)
}

func TestParseListingLatin1(t *testing.T) {
	// "café.zip" with é as a single ISO-8859-1 byte
	body := []byte("<html><head><title>Index</title></head><body><p>Fichiers publi\xe9s</p>" +
		"<a href=\"caf\xe9.zip\">caf\xe9.zip</a><a href=\"tea.zip\">tea.zip</a></body></html>")

	files := parseListing(body, ".zip")
	require.Len(t, files, 2)
	assert.True(t, utf8.ValidString(files[0]), files[0])
	assert.True(t, strings.HasPrefix(files[0], "caf"))
	assert.Equal(t, "tea.zip", files[1])
}

func TestParseSizes(t *testing.T) {
	apache := `<table>
<tr><th>Name</th><th>Last modified</th><th>Size</th></tr>
<tr><td><a href="RetroArch.apk">RetroArch.apk</a></td><td align="right">2024-03-01 10:12  </td><td align="right"> 48M</td></tr>
<tr><td><a href="Tiny.apk">Tiny.apk</a></td><td align="right">2024-03-01 10:12  </td><td align="right">  - </td></tr>
</table>`
	assert.Equal(t, map[string]string{"RetroArch.apk": "48M"}, parseSizes([]byte(apache), ".apk"))

	nginx := "<pre><a href=\"../\">../</a>\n" +
		"<a href=\"Notes.apk\">Notes.apk</a>                 01-Mar-2024 10:12             2048576\n" +
		"<a href=\"Other.apk\">Other.apk</a>\n</pre>"
	assert.Equal(t, map[string]string{"Notes.apk": "2048576"}, parseSizes([]byte(nginx), ".apk"))
}
