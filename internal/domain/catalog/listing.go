package catalog

import (
	"bytes"
	"io"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// sizePattern matches the size column of Apache and nginx autoindex pages
var sizePattern = regexp.MustCompile(`^\d+(\.\d+)?[KMGT]?$`)

// decode returns a UTF-8 reader over body. Listings from older store mirrors
// are served as Latin-1 without a charset header.
func decode(body []byte) io.Reader {
	if utf8.Valid(body) {
		return bytes.NewReader(body)
	}
	result, err := chardet.NewHtmlDetector().DetectBest(body)
	if err != nil || result == nil {
		return bytes.NewReader(body)
	}
	enc, _ := charset.Lookup(result.Charset)
	if enc == nil {
		return bytes.NewReader(body)
	}
	return enc.NewDecoder().Reader(bytes.NewReader(body))
}

// parseListing returns the base names of anchors whose href ends in one of
// exts. Unrelated markup is ignored; an unparseable page yields nothing.
func parseListing(body []byte, exts ...string) []string {
	doc, err := goquery.NewDocumentFromReader(decode(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var files []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		file, ok := listedFile(href, exts)
		if !ok {
			return
		}
		if _, dup := seen[file]; dup {
			return
		}
		seen[file] = struct{}{}
		files = append(files, file)
	})

	return files
}

// parseSizes maps listed files to the size column shown next to them, for
// the index layouts that have one. Files without a size are left out.
func parseSizes(body []byte, exts ...string) map[string]string {
	doc, err := htmlquery.Parse(decode(body))
	if err != nil {
		return nil
	}

	sizes := make(map[string]string)
	for _, a := range htmlquery.Find(doc, "//a[@href]") {
		file, ok := listedFile(htmlquery.SelectAttr(a, "href"), exts)
		if !ok {
			continue
		}
		if size := sizeBeside(a); size != "" {
			sizes[file] = size
		}
	}
	return sizes
}

// sizeBeside reads the size either from a later table cell in the anchor's
// row or from the text trailing the anchor in a <pre> listing.
func sizeBeside(a *html.Node) string {
	for _, td := range htmlquery.Find(a, "./ancestor::td[1]/following-sibling::td") {
		if text := strings.TrimSpace(htmlquery.InnerText(td)); sizePattern.MatchString(text) {
			return text
		}
	}

	if next := a.NextSibling; next != nil && next.Type == html.TextNode {
		line, _, _ := strings.Cut(next.Data, "\n")
		if fields := strings.Fields(line); len(fields) > 0 {
			if last := fields[len(fields)-1]; sizePattern.MatchString(last) {
				return last
			}
		}
	}
	return ""
}

func listedFile(href string, exts []string) (string, bool) {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	if !hasAnySuffix(href, exts) {
		return "", false
	}
	return path.Base(href), true
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
