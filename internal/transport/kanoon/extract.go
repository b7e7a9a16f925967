package kanoon

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kailas-cloud/casefinder/internal/domain"
)

// Selectors for the results page markup.
const (
	selNoResults = "div.no_results"
	selResult    = "div.result"
	selTitle     = "div.title"
	selSnippet   = "div.snippet"
)

const ellipsis = "..."

var errOffOrigin = errors.New("link outside the repository origin")

// extract parses a results page. A "no results" marker yields an empty,
// non-nil slice. Result blocks without a linked title are skipped.
func (c *Client) extract(body []byte, factPattern string) ([]domain.CaseResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	cases := []domain.CaseResult{}
	if doc.Find(selNoResults).Length() > 0 {
		return cases, nil
	}

	doc.Find(selResult).Each(func(_ int, block *goquery.Selection) {
		cr, ok := c.parseBlock(block)
		if !ok {
			return
		}
		cr.SimilarityScore = c.safeScore(factPattern, cr.Summary)
		cases = append(cases, cr)
	})
	return cases, nil
}

func (c *Client) parseBlock(block *goquery.Selection) (domain.CaseResult, bool) {
	title := block.Find(selTitle).First()
	if title.Length() == 0 {
		return domain.CaseResult{}, false
	}
	link := title.Find("a").First()
	if link.Length() == 0 {
		return domain.CaseResult{}, false
	}
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return domain.CaseResult{}, false
	}
	abs, err := c.resolve(href)
	if err != nil {
		return domain.CaseResult{}, false
	}
	titleText := strings.TrimSpace(title.Text())
	if titleText == "" {
		return domain.CaseResult{}, false
	}

	return domain.CaseResult{
		Title:   titleText,
		URL:     abs,
		Summary: normalizeSummary(block.Find(selSnippet).First().Text()),
	}, true
}

// resolve turns a result link into an absolute URL on the repository origin.
// Links pointing at another host are rejected.
func (c *Client) resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	abs := c.origin.ResolveReference(ref)
	if !strings.EqualFold(abs.Host, c.origin.Host) {
		return "", fmt.Errorf("%w: %s", errOffOrigin, href)
	}
	abs.Scheme = c.origin.Scheme
	abs.Host = c.origin.Host
	return abs.String(), nil
}

// safeScore shields the search from a misbehaving scorer.
func (c *Client) safeScore(query, text string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Sugar().Warnf("relevance scorer panicked: %v", r)
			score = 0
		}
	}()
	s := c.score(query, text)
	if s != s || s < 0 { // NaN or negative
		return 0
	}
	return min(s, 1.0)
}

// normalizeSummary collapses whitespace runs and pads each ellipsis with a space.
func normalizeSummary(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, ellipsis, ellipsis+" ")
}

func isErr(err, target error) bool {
	return err != nil && errors.Is(err, target)
}
