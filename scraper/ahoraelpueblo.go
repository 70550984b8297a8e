package scraper

import (
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Static and compile-time check to ensure ahoraElPuebloParser implements
// the PageParser interface.
var _ PageParser = (*ahoraElPuebloParser)(nil)

// ahoraElPuebloParser extracts blog-post blocks from Ahora El Pueblo
// section listings (a Joomla article list with schema.org microdata).
// Pagination advances a "?start=N" offset cursor by a fixed step.
type ahoraElPuebloParser struct {
	logger *logrus.Entry
}

func (p *ahoraElPuebloParser) Parse(
	req PageRequest, body io.Reader, now time.Time,
) ([]RawArticle, *PageRequest, error) {

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, nil, fmt.Errorf("ahoraelpueblo parser: %w", err)
	}

	blocks := doc.Find("div[class*='article-list'] div[itemprop='blogPost']")
	if blocks.Length() == 0 {
		// Fallback for list variants published without microdata markers.
		blocks = doc.Find("#sp-component div[class*='article-list'] > div > div")
	}

	var articles []RawArticle

	blocks.Each(func(_ int, block *goquery.Selection) {
		linkSel := block.Find("h2[itemprop='name'] a")
		if linkSel.Length() == 0 {
			linkSel = block.Find("h2 a")
		}

		title := collapseText(linkSel.First().Text())
		href, _ := linkSel.First().Attr("href")
		articleURL := resolveURL(req.URL, href)

		if title == "" || articleURL == "" {
			p.logger.WithField("page_url", req.URL).Warn("skipping incomplete article block")

			return
		}

		summary := collapseText(block.Find("div[itemprop='description']").Text())
		if summary == "" {
			summary = collapseText(block.Find("div[class*='article-introtext']").Text())
		}

		published, _ := block.Find("time[itemprop='datePublished']").First().Attr("datetime")
		if published == "" {
			published, _ = block.Find("time").First().Attr("datetime")
		}

		articles = append(articles, RawArticle{
			SourceID:       uuid.NewString(),
			Site:           SiteAhoraElPueblo,
			Section:        req.Section,
			Title:          title,
			Summary:        summary,
			PublishedAtRaw: published,
			URL:            articleURL,
			CollectedAt:    now,
		})
	})

	// Offset pagination advances unconditionally until the fetch budget is
	// spent, mirroring the page-number policy of El Deber.
	var next *PageRequest
	if req.Page < req.MaxPages {
		n := req
		n.Page++
		n.Offset += req.OffsetStep
		n.URL = fmt.Sprintf(req.Pattern, n.Offset)
		next = &n
	}

	return articles, next, nil
}
