package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/pinchpoint/internal/database"
	"github.com/chrissnell/pinchpoint/internal/metrics"
	"github.com/chrissnell/pinchpoint/pkg/config"
	"github.com/chrissnell/pinchpoint/pkg/pinch"
)

// maxRequestBytes bounds the size of an analysis request body
const maxRequestBytes = 1 << 20

// RunStore archives analysis runs. *database.Client implements it.
type RunStore interface {
	SaveRun(ctx context.Context, run *database.AnalysisRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*database.AnalysisRun, error)
	ListRuns(ctx context.Context, problem string, limit int) ([]database.AnalysisRun, error)
}

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	serverConfig   config.ServerData
	defaultDTMin   float64
	Server         http.Server
	Store          RunStore // nil when no run archive is configured
	analyzer       *pinch.Analyzer
	metrics        *metrics.Collector
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new REST server controller. store may be nil, in
// which case the run archive endpoints answer 404.
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, store RunStore, analyzer *pinch.Analyzer, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if analyzer == nil {
		analyzer = pinch.NewAnalyzer(logger)
	}

	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		serverConfig:   cfgData.Server,
		defaultDTMin:   cfgData.Analysis.DTMin,
		Store:          store,
		analyzer:       analyzer,
		metrics:        metrics.New(metrics.DefaultNamespace),
		logger:         logger,
	}

	if ctrl.defaultDTMin <= 0 {
		ctrl.defaultDTMin = pinch.DefaultDTMin
	}

	// If a listen address was not provided, listen on all interfaces
	if ctrl.serverConfig.ListenAddr == "" {
		logger.Infof("server.listen_addr not provided; defaulting to %s (all interfaces)", config.DefaultListenAddr)
		ctrl.serverConfig.ListenAddr = config.DefaultListenAddr
	}

	// Set default HTTP port if not specified
	if ctrl.serverConfig.HTTPPort == 0 {
		logger.Infof("server.http_port not provided; defaulting to %d", config.DefaultHTTPPort)
		ctrl.serverConfig.HTTPPort = config.DefaultHTTPPort
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.serverConfig.ListenAddr, ctrl.serverConfig.HTTPPort)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infow("starting REST server", "addr", c.Server.Addr, "archive", c.Store != nil)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.serverConfig.TLSCertPath != "" && c.serverConfig.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.serverConfig.TLSCertPath, c.serverConfig.TLSKeyPath); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Metrics returns the collector backing /metrics
func (c *Controller) Metrics() *metrics.Collector {
	return c.metrics
}

// Handler returns the HTTP handler serving the API
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.loggingMiddleware, c.corsMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analyze", c.handlers.Analyze).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/problems", c.handlers.GetProblems).Methods(http.MethodGet)
	api.HandleFunc("/problems/{name}/analysis", c.handlers.AnalyzeProblem).Methods(http.MethodGet)
	api.HandleFunc("/runs", c.handlers.ListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", c.handlers.GetRun).Methods(http.MethodGet)

	router.Handle("/metrics", c.metrics.Handler()).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)

	return router
}

// loggingMiddleware logs every request with its status, size and duration
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		c.logger.Infow(fmt.Sprintf("%s %s %d", r.Method, r.URL.Path, rec.status),
			"status", rec.status,
			"size", rec.size,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}

// statusRecorder captures the status code and body size of a response
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// corsMiddleware adds CORS headers
func (c *Controller) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
