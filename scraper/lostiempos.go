package scraper

import (
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Static and compile-time check to ensure losTiemposParser implements the
// PageParser interface.
var _ PageParser = (*losTiemposParser)(nil)

// losTiemposParser extracts article rows from the Los Tiempos latest-news
// listing (a Drupal views pane). Pagination follows the "pager-next" link
// the page itself publishes; an absent link terminates the branch.
type losTiemposParser struct {
	logger *logrus.Entry
}

// defaultSection labels rows whose listing markup omits a section link.
const losTiemposDefaultSection = "Ultimas Noticias"

func (p *losTiemposParser) Parse(
	req PageRequest, body io.Reader, now time.Time,
) ([]RawArticle, *PageRequest, error) {

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, nil, fmt.Errorf("lostiempos parser: %w", err)
	}

	blocks := doc.Find("section[class*='pane-views-panes'] div[class*='views-row']")
	if blocks.Length() == 0 {
		// Fallback when the pane wrapper changes but the view rows survive.
		blocks = doc.Find("div[class*='views-row']")
	}

	var articles []RawArticle

	blocks.Each(func(_ int, block *goquery.Selection) {
		linkSel := block.Find("div[class*='views-field-title'] a")
		if linkSel.Length() == 0 {
			linkSel = block.Find("h3 a")
		}

		title := collapseText(linkSel.First().Text())
		href, _ := linkSel.First().Attr("href")
		articleURL := resolveURL(req.URL, href)

		if title == "" || articleURL == "" {
			p.logger.WithField("page_url", req.URL).Warn("skipping incomplete article block")

			return
		}

		summary := collapseText(block.Find("div[class*='views-field-field-noticia-sumario'] span").Text())
		if summary == "" {
			summary = collapseText(block.Find("div[class*='views-field-field-noticia-sumario']").Text())
		}

		published := collapseText(block.Find("span[class*='views-field-field-noticia-fecha'] span").Text())
		if published == "" {
			published = collapseText(block.Find("span[class*='views-field-field-noticia-fecha']").Text())
		}

		section := collapseText(block.Find("span[class*='views-field-seccion'] span a").Text())
		if section == "" {
			section = collapseText(block.Find("span[class*='views-field-seccion'] a").Text())
		}
		if section == "" {
			section = losTiemposDefaultSection
		}

		articles = append(articles, RawArticle{
			SourceID:       uuid.NewString(),
			Site:           SiteLosTiempos,
			Section:        section,
			Title:          title,
			Summary:        summary,
			PublishedAtRaw: published,
			URL:            articleURL,
			CollectedAt:    now,
		})
	})

	var next *PageRequest
	if req.Page < req.MaxPages {
		if href, ok := doc.Find("li[class*='pager-next'] a").First().Attr("href"); ok {
			if nextURL := resolveURL(req.URL, href); nextURL != "" {
				n := req
				n.Page++
				n.URL = nextURL
				next = &n
			}
		}
	}

	return articles, next, nil
}
