package collector

import (
	"sync"

	"github.com/bolnews/newslake/lake"
	"github.com/bolnews/newslake/pipeline"
	"github.com/bolnews/newslake/scraper"
)

var (
	// Static and compile-time check to ensure articlePayload implements the
	// pipeline.Payload interface.
	_ pipeline.Payload = (*articlePayload)(nil)

	payloadPool = sync.Pool{
		New: func() interface{} { return new(articlePayload) },
	}
)

// articlePayload carries one article through the collect pipeline: the raw
// extraction as emitted by the crawl source, plus the refined row filled in
// by the refine stage.
type articlePayload struct {
	Raw     scraper.RawArticle
	Refined lake.RefinedArticle
}

// Clone implements pipeline.Payload.
func (p *articlePayload) Clone() pipeline.Payload {
	newP := payloadPool.Get().(*articlePayload)
	newP.Raw = p.Raw
	newP.Refined = p.Refined

	return newP
}

// MarkAsProcessed implements pipeline.Payload.
func (p *articlePayload) MarkAsProcessed() {
	p.Raw = scraper.RawArticle{}
	p.Refined = lake.RefinedArticle{}

	payloadPool.Put(p)
}
