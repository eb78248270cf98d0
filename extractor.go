package main

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Content-root scoring: candidates are ranked by total text length plus a
// flat weight per contained image. Scraped pages vary too much in structure
// for a single selector, so this stays a documented heuristic, not an exact
// algorithm. A best candidate below minRootScore falls back to the whole
// document body.
const (
	imageScoreWeight = 120
	minRootScore     = 40
)

// rootCandidates are tried for the content root, article-like containers
// first, generic content containers after, then main. The document body is
// the implicit final fallback.
var rootCandidates = []string{
	".c-blog-article__text",
	".c-blog-article",
	".blog-article",
	"article",
	".entry__content",
	".entry",
	".post",
	"#content",
	".content",
	"main",
}

// chromeTags are removed from the selected root unconditionally.
var chromeTags = "header, footer, nav, aside, form"

// chromeClassFragments mark site chrome by class-name substring: navigation,
// share widgets, language switchers and similar furniture left inside the
// content root by the scrape.
var chromeClassFragments = []string{
	"header", "footer", "nav", "menu", "share", "sns", "social",
	"breadcrumb", "sidebar", "banner", "lang", "pager", "pagination",
	"search", "widget",
}

// keepWhenEmpty lists tags that carry meaning without text or children.
var keepWhenEmpty = map[string]bool{
	"img": true, "br": true, "hr": true, "source": true,
	"picture": true, "video": true, "audio": true, "svg": true, "canvas": true,
}

var fragmentPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto", "tel", "data")
	p.AllowAttrs("target", "rel").OnElements("a")
	p.AllowAttrs("srcset").OnElements("img")
	return p
}()

// ExtractBody turns resolved content into a sanitized HTML fragment. It
// never fails: malformed input degrades to the original text escaped inside a
// <pre> block.
func ExtractBody(text string, kind ContentKind, baseURL string) string {
	var fragment string
	switch kind {
	case KindHTML:
		extracted, err := extractHTMLBody(text, baseURL)
		if err != nil {
			fragment = htmlToPreBlock(text)
		} else {
			fragment = extracted
		}
	default:
		fragment = renderMarkdown(text, baseURL)
	}
	return fragmentPolicy.Sanitize(fragment)
}

// inlinePattern matches markdown image and link syntax; group 1 is the "!"
// marker, 2 the alt/text, 3 the target.
var inlinePattern = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^)\s]*)\)`)

// renderMarkdown renders the minimal line-oriented markdown dialect the
// exporter writes. This is deliberately not CommonMark: headings, images,
// links, blank lines and paragraphs are all there is.
func renderMarkdown(text, baseURL string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "### "):
			b.WriteString("<h3>" + html.EscapeString(strings.TrimPrefix(line, "### ")) + "</h3>\n")
		case strings.HasPrefix(line, "## "):
			b.WriteString("<h2>" + html.EscapeString(strings.TrimPrefix(line, "## ")) + "</h2>\n")
		case strings.HasPrefix(line, "# "):
			b.WriteString("<h1>" + html.EscapeString(strings.TrimPrefix(line, "# ")) + "</h1>\n")
		case strings.TrimSpace(line) == "":
			b.WriteString("<br>\n")
		default:
			b.WriteString("<p>" + renderInline(line, baseURL) + "</p>\n")
		}
	}
	return b.String()
}

// renderInline escapes a line while substituting image and link syntax. A
// reference that fails URL resolution renders as a visible inline error
// marker; it never aborts the rest of the line.
func renderInline(line, baseURL string) string {
	var b strings.Builder
	last := 0
	for _, m := range inlinePattern.FindAllStringSubmatchIndex(line, -1) {
		b.WriteString(html.EscapeString(line[last:m[0]]))
		last = m[1]

		isImage := m[3] > m[2]
		label := line[m[4]:m[5]]
		target := line[m[6]:m[7]]

		resolved, err := ResolveRef(baseURL, target)
		if err != nil {
			what := "link"
			if isImage {
				what = "image"
			}
			b.WriteString(html.EscapeString(fmt.Sprintf("[%s parse error: %s]", what, target)))
			continue
		}
		if isImage {
			b.WriteString(`<img src="` + html.EscapeString(resolved) + `" alt="` + html.EscapeString(label) + `">`)
		} else {
			b.WriteString(`<a href="` + html.EscapeString(resolved) + `" target="_blank" rel="noreferrer noopener">` +
				html.EscapeString(label) + `</a>`)
		}
	}
	b.WriteString(html.EscapeString(line[last:]))
	return b.String()
}

// extractHTMLBody parses a scraped page and returns the best-guess article
// body with chrome removed and every relative reference rewritten against
// baseURL.
func extractHTMLBody(text, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find("script, style, iframe, object, embed, noscript").Remove()

	root := selectContentRoot(doc)
	removeChrome(root)
	rewriteReferences(root, baseURL)
	pruneEmptyLeaves(root)

	markup, err := root.Html()
	if err != nil {
		return "", fmt.Errorf("serializing fragment: %w", err)
	}
	return strings.TrimSpace(markup), nil
}

// selectContentRoot scores every candidate container and returns the best
// one, falling back to the document body. A selector engine panic counts as
// "no candidate found".
func selectContentRoot(doc *goquery.Document) *goquery.Selection {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	best := body
	bestScore := 0
	func() {
		defer func() { recover() }()
		for _, selector := range rootCandidates {
			doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
				score := scoreCandidate(s)
				if score > bestScore {
					best, bestScore = s, score
				}
			})
		}
	}()

	if bestScore < minRootScore {
		return body
	}
	return best
}

func scoreCandidate(s *goquery.Selection) int {
	textLen := len(strings.TrimSpace(s.Text()))
	return textLen + imageScoreWeight*s.Find("img").Length()
}

// removeChrome strips structural chrome from the selected root, first by tag
// and then by class-name substring.
func removeChrome(root *goquery.Selection) {
	root.Find(chromeTags).Remove()
	root.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		lower := strings.ToLower(class)
		for _, fragment := range chromeClassFragments {
			if strings.Contains(lower, fragment) {
				s.Remove()
				return
			}
		}
	})
}

// skipRewrite reports whether a reference must be left untouched: already
// absolute, a data/mailto/tel URI, or an in-page fragment.
func skipRewrite(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return true
	}
	for _, prefix := range []string{"http://", "https://", "//", "data:", "mailto:", "tel:"} {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}

// rewriteReferences resolves every relative href/src/srcset against baseURL
// so the fragment renders correctly wherever the viewer page lives.
func rewriteReferences(root *goquery.Selection, baseURL string) {
	rewrite := func(attr string) {
		root.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			ref, _ := s.Attr(attr)
			if skipRewrite(ref) {
				return
			}
			if resolved, err := ResolveRef(baseURL, ref); err == nil {
				s.SetAttr(attr, resolved)
			}
		})
	}
	rewrite("href")
	rewrite("src")

	root.Find("[srcset]").Each(func(_ int, s *goquery.Selection) {
		srcset, _ := s.Attr("srcset")
		s.SetAttr("srcset", rewriteSrcset(srcset, baseURL))
	})
}

// rewriteSrcset resolves the URL portion of each srcset candidate, keeping
// any trailing size or density descriptor.
func rewriteSrcset(srcset, baseURL string) string {
	parts := strings.Split(srcset, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		if !skipRewrite(fields[0]) {
			if resolved, err := ResolveRef(baseURL, fields[0]); err == nil {
				fields[0] = resolved
			}
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, ", ")
}

// pruneEmptyLeaves drops containers left hollow by chrome removal: no text,
// no images, no children. Runs a few passes so newly emptied parents go too.
func pruneEmptyLeaves(root *goquery.Selection) {
	for i := 0; i < 4; i++ {
		removed := false
		root.Find("*").Each(func(_ int, s *goquery.Selection) {
			node := s.Get(0)
			if node == nil || keepWhenEmpty[node.Data] {
				return
			}
			if s.Children().Length() == 0 && strings.TrimSpace(s.Text()) == "" {
				s.Remove()
				removed = true
			}
		})
		if !removed {
			return
		}
	}
}

// htmlToPreBlock is a last-resort rendering used by callers that already
// failed extraction once and just need something inert on screen.
func htmlToPreBlock(text string) string {
	var b bytes.Buffer
	b.WriteString("<pre>")
	b.WriteString(html.EscapeString(text))
	b.WriteString("</pre>")
	return b.String()
}
