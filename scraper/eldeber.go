package scraper

import (
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Static and compile-time check to ensure elDeberParser implements the
// PageParser interface.
var _ PageParser = (*elDeberParser)(nil)

// elDeberParser extracts article teasers from El Deber section listings.
// Teasers live inside <article> elements carrying a "titulo-teaser-2col"
// title block; pagination is a page number embedded in the section URL.
type elDeberParser struct {
	logger *logrus.Entry
}

func (p *elDeberParser) Parse(
	req PageRequest, body io.Reader, now time.Time,
) ([]RawArticle, *PageRequest, error) {

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, nil, fmt.Errorf("eldeber parser: %w", err)
	}

	var articles []RawArticle

	doc.Find("article").Each(func(_ int, block *goquery.Selection) {
		titleSel := block.Find("div[class*='titulo-teaser-2col'] a h2")
		if titleSel.Length() == 0 {
			// Fallback for teaser variants that drop the title wrapper div.
			titleSel = block.Find("a h2")
		}
		if titleSel.Length() == 0 {
			return
		}

		title := collapseText(titleSel.First().Text())

		linkSel := block.Find("div[class*='titulo-teaser-2col'] a")
		if linkSel.Length() == 0 {
			linkSel = titleSel.First().Parent()
		}
		href, _ := linkSel.First().Attr("href")
		articleURL := resolveURL(req.URL, href)

		if title == "" || articleURL == "" {
			p.logger.WithField("page_url", req.URL).Warn("skipping incomplete article block")

			return
		}

		summary := collapseText(block.Find("div[class*='entradilla-teaser-2col']").Text())
		if summary == "" {
			summary = collapseText(block.Find("p").First().Text())
		}

		published := collapseText(block.Find("div[class*='fecha-teaser-2col'] div time").Text())
		if published == "" {
			published = collapseText(block.Find("time").First().Text())
		}

		articles = append(articles, RawArticle{
			SourceID:       uuid.NewString(),
			Site:           SiteElDeber,
			Section:        req.Section,
			Title:          title,
			Summary:        summary,
			PublishedAtRaw: published,
			URL:            articleURL,
			CollectedAt:    now,
		})
	})

	// El Deber paginates unconditionally until the fetch budget is spent;
	// empty pages do not terminate the branch early.
	var next *PageRequest
	if req.Page < req.MaxPages {
		n := req
		n.Page++
		n.URL = fmt.Sprintf(req.Pattern, n.Page)
		next = &n
	}

	return articles, next, nil
}
