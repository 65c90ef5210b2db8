package routes

import (
	"net/http"

	"github.com/lifexia/healthnav/internal/api/handlers"
	"github.com/lifexia/healthnav/internal/api/middleware"
	"github.com/lifexia/healthnav/internal/infrastructure/observability"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	locationHandler *handlers.LocationHandler

	geolocationHandler *handlers.GeolocationHandler

	previewHandler *handlers.PreviewHandler
	shareHandler   *handlers.ShareHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router

func NewRouter(

	locationHandler *handlers.LocationHandler,

	geolocationHandler *handlers.GeolocationHandler,

	previewHandler *handlers.PreviewHandler,
	shareHandler *handlers.ShareHandler,

	cacheMiddleware *middleware.CacheMiddleware,

	metrics *observability.Metrics,

) *Router {

	return &Router{

		mux: http.NewServeMux(),

		locationHandler: locationHandler,

		geolocationHandler: geolocationHandler,

		previewHandler: previewHandler,
		shareHandler:   shareHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// Location endpoints

	r.mux.HandleFunc("GET /api/map/locations", r.locationHandler.ListLocations)

	r.mux.HandleFunc("GET /api/map/locations/nearby", r.locationHandler.NearbyLocations)

	r.mux.HandleFunc("GET /api/map/hospitals/nearby", r.locationHandler.NearbyHospitals)

	r.mux.HandleFunc("GET /api/map/pharmacies/nearby", r.locationHandler.NearbyPharmacies)

	r.mux.HandleFunc("GET /api/map/search", r.locationHandler.Search)

	r.mux.HandleFunc("GET /api/map/directions/{id}", r.locationHandler.Directions)

	r.mux.HandleFunc("GET /api/map/emergency", r.locationHandler.Emergency)

	r.mux.HandleFunc("GET /api/map/card-facilities", r.locationHandler.CardFacilities)

	r.mux.HandleFunc("GET /api/map/categories", r.locationHandler.Categories)

	// Map preview endpoint

	r.mux.HandleFunc("GET /api/map/preview", r.previewHandler.GetPreview)

	// Geolocation endpoints

	r.mux.HandleFunc("GET /api/geolocation/geocode", r.geolocationHandler.Geocode)

	r.mux.HandleFunc("GET /api/geolocation/reverse", r.geolocationHandler.ReverseGeocode)

	// Share endpoint

	if r.shareHandler != nil {
		r.mux.HandleFunc("POST /api/share/directions", r.shareHandler.ShareDirections)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
