package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/attribution"
	"github.com/radiusdt/vector-attribution/internal/config"
	"github.com/radiusdt/vector-attribution/internal/database"
	"github.com/radiusdt/vector-attribution/internal/geo"
	"github.com/radiusdt/vector-attribution/internal/metrics"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB      *database.PostgresDB
	Redis   *database.RedisDB
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Server wraps HTTP handlers and attribution services.
type Server struct {
	visitService      *attribution.VisitService
	conversionService *attribution.ConversionService
	catalogService    *attribution.CatalogService
	reporter          *attribution.Reporter
	dispatcher        *attribution.Dispatcher
	cache             *attribution.ReportCache
	logger            *zap.Logger
	config            *config.Config
	metrics           *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	// Initialize repositories
	var channelRepo storage.ChannelRepo
	var templateRepo storage.UTMTemplateRepo
	var promoRepo storage.PromotionCodeRepo
	var defRepo storage.ConversionEventRepo
	var reportRepo storage.CustomReportRepo
	var eventStore storage.EventStore
	var costRepo storage.CostRepo

	if deps.DB != nil {
		channelRepo = storage.NewPostgresChannelRepo(deps.DB.Pool)
		templateRepo = storage.NewPostgresUTMTemplateRepo(deps.DB.Pool)
		promoRepo = storage.NewPostgresPromotionCodeRepo(deps.DB.Pool)
		defRepo = storage.NewPostgresConversionEventRepo(deps.DB.Pool)
		reportRepo = storage.NewPostgresCustomReportRepo(deps.DB.Pool)
		eventStore = storage.NewPostgresEventStore(deps.DB.Pool)
		costRepo = storage.NewPostgresCostRepo(deps.DB.Pool)
	} else {
		channelRepo = storage.NewInMemoryChannelRepo()
		templateRepo = storage.NewInMemoryUTMTemplateRepo()
		promoRepo = storage.NewInMemoryPromotionCodeRepo()
		defRepo = storage.NewInMemoryConversionEventRepo()
		reportRepo = storage.NewInMemoryCustomReportRepo()
		eventStore = storage.NewInMemoryEventStore()
		costRepo = storage.NewInMemoryCostRepo()
	}

	// GeoIP enrichment is optional; ingestion works without it.
	var locator geo.Locator
	if deps.Config.Geo.Enabled {
		l, err := geo.NewMaxMindLocator(deps.Config.Geo.DatabasePath)
		if err != nil {
			deps.Logger.Warn("failed to open GeoIP database, geo enrichment disabled", zap.Error(err))
		} else {
			locator = l
		}
	}

	resolver := attribution.NewChannelResolver(channelRepo)
	engine := attribution.NewModelEngine(eventStore, attribution.ModelOptions{})
	reporter := attribution.NewReporter(
		eventStore, channelRepo, costRepo, defRepo, engine,
		deps.Config.Query.Timeout, deps.Logger, deps.Metrics,
	)
	dispatcher := attribution.NewDispatcher(reporter, deps.Config.Query.DefaultRangeDays)

	var cacheClient = attribution.NewReportCache(nil, 0, deps.Logger, deps.Metrics)
	if deps.Redis != nil {
		cacheClient = attribution.NewReportCache(deps.Redis.Client, deps.Config.Query.CacheTTL, deps.Logger, deps.Metrics)
	}

	s := &Server{
		visitService:      attribution.NewVisitService(eventStore, resolver, locator, deps.Logger, deps.Metrics),
		conversionService: attribution.NewConversionService(eventStore, defRepo, deps.Logger, deps.Metrics),
		catalogService:    attribution.NewCatalogService(channelRepo, templateRepo, promoRepo, defRepo, reportRepo, costRepo, deps.Logger),
		reporter:          reporter,
		dispatcher:        dispatcher,
		cache:             cacheClient,
		logger:            deps.Logger,
		config:            deps.Config,
		metrics:           deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Tracking
	mux.HandleFunc("/track/visit", s.handleTrackVisit)
	mux.HandleFunc("/track/conversion", s.handleTrackConversion)

	// Analytics
	mux.HandleFunc("/analytics/dashboard", s.handleDashboard)
	mux.HandleFunc("/analytics/funnel", s.handleFunnel)
	mux.HandleFunc("/analytics/touchpoints", s.handleTouchpoints)
	mux.HandleFunc("/analytics/model-comparison", s.handleModelComparison)
	mux.HandleFunc("/analytics/roi", s.handleROI)
	mux.HandleFunc("/analytics/channel-comparison", s.handleChannelComparison)
	mux.HandleFunc("/analytics/trends", s.handleTrends)
	mux.HandleFunc("/analytics/user-quality", s.handleUserQuality)

	// Catalog
	mux.HandleFunc("/channels", s.handleChannels)
	mux.HandleFunc("/channels/", s.handleChannelByID)
	mux.HandleFunc("/utm-templates", s.handleUTMTemplates)
	mux.HandleFunc("/utm-templates/", s.handleUTMTemplateByID)
	mux.HandleFunc("/promo-codes", s.handlePromoCodes)
	mux.HandleFunc("/promo-codes/redeem", s.handlePromoRedeem)
	mux.HandleFunc("/promo-codes/", s.handlePromoCodeByID)
	mux.HandleFunc("/conversion-events", s.handleConversionEvents)
	mux.HandleFunc("/conversion-events/", s.handleConversionEventByID)
	mux.HandleFunc("/costs", s.handleCosts)

	// Stored reports
	mux.HandleFunc("/reports", s.handleReports)
	mux.HandleFunc("/reports/", s.handleReportByID)

	return mux
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Envelope ----

// envelope is the uniform response shape: {success, data?, message?}.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// fail maps the typed service errors onto status codes and writes a
// non-success envelope.
func (s *Server) fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	message := "internal error"

	switch {
	case attribution.IsValidation(err):
		code = http.StatusBadRequest
		message = err.Error()
	case attribution.IsNotFound(err):
		code = http.StatusNotFound
		message = err.Error()
	case attribution.IsConflict(err):
		code = http.StatusConflict
		message = err.Error()
	case attribution.IsAggregationTimeout(err):
		code = http.StatusGatewayTimeout
		message = err.Error()
	default:
		s.logger.Error("request failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: "method not allowed"})
}

// ---- Query parsing ----

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// dateRange reads start_date/end_date query params, applying the
// default trailing window for missing endpoints. A date-only end_date
// is treated as inclusive.
func (s *Server) dateRange(r *http.Request) (attribution.DateRange, error) {
	var dr attribution.DateRange
	q := r.URL.Query()

	if v := q.Get("start_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return dr, &attribution.ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD or RFC 3339"}
		}
		dr.Start = t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return dr, &attribution.ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD or RFC 3339"}
		}
		if len(v) == len("2006-01-02") {
			t = t.AddDate(0, 0, 1)
		}
		dr.End = t
	}
	return dr.OrDefault(s.config.Query.DefaultRangeDays), nil
}
