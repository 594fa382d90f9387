// Package parser provides the default page adapters: article text extraction
// and listing-page signatures. Both are pure functions of the page body and
// are safe to run on the offload pool.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/newsreduce/internal/crawler"
)

// DefaultListingSelector matches the headline links on a day listing page.
const DefaultListingSelector = "ul.type06_headline li dt a"

var (
	// ErrEmptyArticle is returned when no article body could be found.
	ErrEmptyArticle = errors.New("article body is empty")
	// ErrNoSignature is returned when a listing page has no matching link.
	ErrNoSignature = errors.New("listing page has no article link")
)

var articleBodySelectors = []string{
	"#dic_area",
	"#articleBodyContents",
	"#newsct_article",
	"article",
}

var (
	leadingTag = regexp.MustCompile(`^\s*[\[(][^\])]*[\])]\s*`)
	byline     = regexp.MustCompile(`^[^=\n]{0,80}?(?:기자|특파원)[^=\n]*=\s*`)
	blankRun   = regexp.MustCompile(`\n{3,}`)
)

// Article extracts the body text of an article page. When includeExtra is
// false the leading agency tag and reporter byline are stripped.
func Article(content string, includeExtra bool) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse article html: %w", err)
	}
	doc.Find("script, style, noscript, .end_photo_org, .byline").Remove()

	body := doc.Find("body")
	for _, sel := range articleBodySelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			body = found
			break
		}
	}

	text := normalize(body.Text())
	if !includeExtra {
		text = StripByline(text)
	}
	if text == "" {
		return "", ErrEmptyArticle
	}
	return text, nil
}

// StripByline removes a leading "[city=agency]" style tag and a
// "name 기자 =" reporter byline from text.
func StripByline(text string) string {
	text = leadingTag.ReplaceAllString(text, "")
	text = byline.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// FirstLinkSignature returns a SignatureFunc yielding the href of the first
// element matching selector. An empty selector uses DefaultListingSelector.
func FirstLinkSignature(selector string) crawler.SignatureFunc {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultListingSelector
	}
	return func(content string) (string, error) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			return "", fmt.Errorf("parse listing html: %w", err)
		}
		href, ok := doc.Find(selector).First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return "", fmt.Errorf("%w: %s", ErrNoSignature, selector)
		}
		return href, nil
	}
}

func normalize(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	out := strings.Join(lines, "\n")
	out = blankRun.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
