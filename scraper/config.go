package scraper

import "fmt"

const (
	elDeberMaxPages       = 10
	losTiemposMaxPages    = 10
	ahoraElPuebloMaxPages = 10

	ahoraElPuebloOffsetStep = 5

	losTiemposStartURL = "https://www.lostiempos.com/ultimas-noticias"
)

var (
	elDeberSections = []string{
		"pais",
		"opinion",
		"santa-cruz",
		"mundo",
		"sports",
		"educacion-y-sociedad",
		"ultimas-noticias",
		"economia",
	}

	ahoraElPuebloSections = []string{
		"seguridad",
		"sociedad",
		"deportes",
		"culturas",
		"politica",
		"economia",
	}
)

// Config is the immutable crawl configuration: the branch seed requests and
// the shared header set. It is constructed once at startup and passed
// explicitly into the crawl controller; nothing here is mutated afterwards.
type Config struct {
	Headers map[string]string
	Seeds   []PageRequest
}

// DefaultConfig returns the crawl configuration for the three collected
// sites: one branch per El Deber section (page-number pagination), one
// branch for the Los Tiempos latest-news listing (next-link pagination) and
// one branch per Ahora El Pueblo section (offset pagination).
func DefaultConfig() Config {
	seeds := make([]PageRequest, 0, len(elDeberSections)+1+len(ahoraElPuebloSections))

	for _, section := range elDeberSections {
		pattern := fmt.Sprintf("https://eldeber.com.bo/%s/%%d/", section)
		seeds = append(seeds, PageRequest{
			Site:     SiteElDeber,
			Section:  section,
			URL:      fmt.Sprintf(pattern, 1),
			Page:     1,
			MaxPages: elDeberMaxPages,
			Pattern:  pattern,
		})
	}

	seeds = append(seeds, PageRequest{
		Site:     SiteLosTiempos,
		Section:  "ultimas-noticias",
		URL:      losTiemposStartURL,
		Page:     1,
		MaxPages: losTiemposMaxPages,
	})

	for _, section := range ahoraElPuebloSections {
		pattern := fmt.Sprintf("https://ahoraelpueblo.bo/index.php/nacional/%s?start=%%d", section)
		seeds = append(seeds, PageRequest{
			Site:       SiteAhoraElPueblo,
			Section:    section,
			URL:        fmt.Sprintf(pattern, 0),
			Page:       1,
			MaxPages:   ahoraElPuebloMaxPages,
			Offset:     0,
			OffsetStep: ahoraElPuebloOffsetStep,
			Pattern:    pattern,
		})
	}

	return Config{
		Headers: defaultHeaders(),
		Seeds:   seeds,
	}
}

// defaultHeaders returns the browser-like header set the sites expect;
// requests without it get bot-blocked by at least Los Tiempos.
func defaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Cache-Control":             "max-age=0",
	}
}
