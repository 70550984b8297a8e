/*
	dashboard service exposes the read-only analytics query surface over
	HTTP: article listings, daily/source/section statistics, full-text
	search and the current weather widget. Rendering is left to whatever
	consumes the JSON API.
*/

package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bolnews/newslake/lake"
)

const (
	articlesEndpoint = "/api/articles"
	dailyEndpoint    = "/api/stats/daily"
	sourcesStats     = "/api/stats/sources"
	sectionsStats    = "/api/stats/sections"
	sourcesEndpoint  = "/api/sources"
	searchEndpoint   = "/api/search"
	weatherEndpoint  = "/api/weather"

	// Number of sections returned by the sections statistics endpoint.
	topSectionCount = 10
)

// Service serves the dashboard API. It satisfies the service.Service
// interface.
type Service struct {
	config Config
	router *chi.Mux
}

// New creates and returns a fully configured dashboard service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("dashboard service: config validation failed: %w", err)
	}

	svc := &Service{
		config: config,
		router: chi.NewRouter(),
	}

	svc.router.Get(articlesEndpoint, svc.listArticles)
	svc.router.Get(dailyEndpoint, svc.dailyStats)
	svc.router.Get(sourcesStats, svc.sourceStats)
	svc.router.Get(sectionsStats, svc.sectionStats)
	svc.router.Get(sourcesEndpoint, svc.listSources)
	svc.router.Get(searchEndpoint, svc.searchArticles)
	svc.router.Get(weatherEndpoint, svc.currentWeather)

	return svc, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "dashboard" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.config.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.config.ListenAddr,
		Handler: svc.router,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	go svc.rebuildLoop(ctx)

	svc.config.Logger.WithField("addr", svc.config.ListenAddr).Info("started service")
	defer svc.config.Logger.Info("stopped service")

	if err = srv.Serve(l); err == http.ErrServerClosed {
		// Server closed gracefully.
		err = nil
	}

	return err
}

// rebuildLoop refreshes the search index from the analytics store, once at
// startup and then on every rebuild interval. A failed rebuild leaves the
// previous index contents serving.
func (svc *Service) rebuildLoop(ctx context.Context) {
	if err := svc.rebuildSearchIndex(); err != nil {
		svc.config.Logger.WithError(err).Warn("search index rebuild failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-svc.config.Clock.After(svc.config.IndexRebuildInterval):
			if err := svc.rebuildSearchIndex(); err != nil {
				svc.config.Logger.WithError(err).Warn("search index rebuild failed")
			}
		}
	}
}

func (svc *Service) rebuildSearchIndex() error {
	it, err := svc.config.Store.Articles(lake.Filter{})
	if err != nil {
		return err
	}
	defer func() { _ = it.Close() }()

	var records []*lake.AnalyticsRecord
	for it.Next() {
		records = append(records, it.Article())
	}
	if err := it.Error(); err != nil {
		return err
	}

	return svc.config.SearchIndex.PutAll(records)
}

// articleResponse is the JSON rendering of one analytics row.
type articleResponse struct {
	Title       string  `json:"title"`
	Section     string  `json:"section"`
	Source      string  `json:"source"`
	URL         string  `json:"url"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	ProcessedAt string  `json:"processed_at"`
}

func makeArticleResponse(record *lake.AnalyticsRecord) articleResponse {
	response := articleResponse{
		Title:       record.Title,
		Section:     record.Section,
		Source:      record.Source,
		URL:         record.URL,
		Time:        record.TimeOfDay,
		ProcessedAt: record.ProcessedAt.Format(time.RFC3339),
	}
	if record.Date != nil {
		day := record.Date.Format("2006-01-02")
		response.Date = &day
	}

	return response
}

func (svc *Service) listArticles(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	it, err := svc.config.Store.Articles(filter)
	if err != nil {
		svc.serverError(w, err)

		return
	}
	defer func() { _ = it.Close() }()

	articles := make([]articleResponse, 0)
	for it.Next() {
		articles = append(articles, makeArticleResponse(it.Article()))
	}
	if err := it.Error(); err != nil {
		svc.serverError(w, err)

		return
	}

	svc.writeJSON(w, articles)
}

func (svc *Service) dailyStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	counts, err := svc.config.Store.DailyCounts(filter)
	if err != nil {
		svc.serverError(w, err)

		return
	}

	type dailyResponse struct {
		Day      string `json:"day"`
		Articles int    `json:"articles"`
	}

	stats := make([]dailyResponse, 0, len(counts))
	for _, count := range counts {
		stats = append(stats, dailyResponse{
			Day:      count.Day.Format("2006-01-02"),
			Articles: count.Articles,
		})
	}

	svc.writeJSON(w, stats)
}

func (svc *Service) sourceStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	counts, err := svc.config.Store.SourceCounts(filter)
	if err != nil {
		svc.serverError(w, err)

		return
	}

	type sourceResponse struct {
		Source   string `json:"source"`
		Articles int    `json:"articles"`
	}

	stats := make([]sourceResponse, 0, len(counts))
	for _, count := range counts {
		stats = append(stats, sourceResponse{Source: count.Source, Articles: count.Articles})
	}

	svc.writeJSON(w, stats)
}

func (svc *Service) sectionStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	counts, err := svc.config.Store.TopSections(filter, topSectionCount)
	if err != nil {
		svc.serverError(w, err)

		return
	}

	type sectionResponse struct {
		Section  string `json:"section"`
		Articles int    `json:"articles"`
	}

	stats := make([]sectionResponse, 0, len(counts))
	for _, count := range counts {
		stats = append(stats, sectionResponse{Section: count.Section, Articles: count.Articles})
	}

	svc.writeJSON(w, stats)
}

func (svc *Service) listSources(w http.ResponseWriter, _ *http.Request) {
	sources, err := svc.config.Store.Sources()
	if err != nil {
		svc.serverError(w, err)

		return
	}

	if sources == nil {
		sources = []string{}
	}

	svc.writeJSON(w, sources)
}

func (svc *Service) searchArticles(w http.ResponseWriter, r *http.Request) {
	expression := strings.TrimSpace(r.URL.Query().Get("q"))
	if expression == "" {
		http.Error(w, "missing query parameter: q", http.StatusBadRequest)

		return
	}

	records, err := svc.config.SearchIndex.Search(expression, topSectionCount)
	if err != nil {
		svc.serverError(w, err)

		return
	}

	results := make([]articleResponse, 0, len(records))
	for _, record := range records {
		results = append(results, makeArticleResponse(record))
	}

	svc.writeJSON(w, results)
}

func (svc *Service) currentWeather(w http.ResponseWriter, r *http.Request) {
	if svc.config.Weather == nil {
		http.Error(w, "weather is not configured", http.StatusServiceUnavailable)

		return
	}

	conditions, err := svc.config.Weather.Current(r.Context())
	if err != nil {
		svc.config.Logger.WithError(err).Warn("weather lookup failed")
		http.Error(w, "weather lookup failed", http.StatusBadGateway)

		return
	}

	svc.writeJSON(w, conditions)
}

func (svc *Service) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		svc.config.Logger.WithError(err).Error("response write failed")
	}
}

func (svc *Service) serverError(w http.ResponseWriter, err error) {
	svc.config.Logger.WithError(err).Error("query failed")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// parseFilter extracts the shared sources/from/to query parameters. Dates
// are calendar days in YYYY-MM-DD form; To is inclusive of the named day.
func parseFilter(r *http.Request) (lake.Filter, error) {
	var filter lake.Filter

	if sources := strings.TrimSpace(r.URL.Query().Get("sources")); sources != "" {
		for _, source := range strings.Split(sources, ",") {
			if source = strings.TrimSpace(source); source != "" {
				filter.Sources = append(filter.Sources, source)
			}
		}
	}

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return lake.Filter{}, fmt.Errorf("invalid from date: %q", from)
		}
		filter.From = &t
	}

	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return lake.Filter{}, fmt.Errorf("invalid to date: %q", to)
		}
		filter.To = &t
	}

	return filter, nil
}
