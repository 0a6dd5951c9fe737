package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"recipebox/catalog"
	"recipebox/favorites"
	"recipebox/metrics"
)

// Deps are the collaborators the HTTP layer reads from.
type Deps struct {
	Catalog     *catalog.Catalog
	Favourites  *favorites.Store
	Logger      *zap.Logger
	ImageClient *http.Client
	ImageHosts  []string
	CORSOrigins []string
}

type loggerKey struct{}

// LoggerFrom returns the request-scoped logger, or a no-op logger.
func LoggerFrom(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// NewRouter wires every route behind CORS, tracing and request logging.
func NewRouter(deps Deps) http.Handler {
	cat, favs := deps.Catalog, deps.Favourites
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	imageClient := deps.ImageClient
	if imageClient == nil {
		imageClient = &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	r := mux.NewRouter()
	r.Use(requestLogging(logger))

	r.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		GetHome(cat, favs, w, r)
	}).Methods("GET")

	r.HandleFunc("/categories", func(w http.ResponseWriter, r *http.Request) {
		GetCategories(cat, w, r)
	}).Methods("GET")

	r.HandleFunc("/recipes", func(w http.ResponseWriter, r *http.Request) {
		GetRecipes(cat, favs, w, r)
	}).Methods("GET")

	r.HandleFunc("/recipe", func(w http.ResponseWriter, r *http.Request) {
		GetRecipe(cat, favs, w, r)
	}).Methods("GET")

	r.HandleFunc("/favourites", func(w http.ResponseWriter, r *http.Request) {
		GetFavourites(favs, w, r)
	}).Methods("GET")

	r.HandleFunc("/favourites", func(w http.ResponseWriter, r *http.Request) {
		AddFavourite(cat, favs, w, r)
	}).Methods("POST")

	r.HandleFunc("/favourites", func(w http.ResponseWriter, r *http.Request) {
		RemoveFavourite(favs, w, r)
	}).Methods("DELETE")

	r.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		FetchImageHandler(imageClient, deps.ImageHosts, w, r)
	}).Methods("GET")

	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if !favs.Persistent() {
			status = "degraded: favourites not persisted"
		}
		writeJSON(w, r, http.StatusOK, map[string]string{"status": status})
	}).Methods("GET")

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})

	return otelhttp.NewHandler(c.Handler(r), "recipebox")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogging(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := context.WithValue(r.Context(), loggerKey{}, reqLogger)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			reqLogger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
