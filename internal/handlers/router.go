package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/config"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/database"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/middleware"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/models"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/websocket"
)

// Router wraps the mux router, database and station hub
type Router struct {
	*mux.Router
	db  *database.DB
	hub *websocket.Hub
	cfg *config.Config
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, hub *websocket.Hub, cfg *config.Config) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		db:     db,
		hub:    hub,
		cfg:    cfg,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// API status
	r.HandleFunc("/api/status", r.getStatus).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")

	// Station relay channel (printing agents and scan stations)
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWs(hub, w, req)
	})

	authMW := middleware.Auth(cfg.JWTSecret)

	// Receiver routes: order intake and label sheets
	receiver := r.PathPrefix("/api/receiver").Subrouter()
	receiver.Use(authMW, middleware.RequireRole(models.RoleReceiver))
	receiver.HandleFunc("/orders", r.createOrder).Methods("POST")
	receiver.HandleFunc("/orders", r.listOrders).Methods("GET")
	receiver.HandleFunc("/orders/{id}", r.getOrder).Methods("GET")
	receiver.HandleFunc("/orders/{id}/labels", r.orderLabelsPDF).Methods("GET")

	// Marker routes: label resolution, print acknowledgement, statements
	marker := r.PathPrefix("/api/marker").Subrouter()
	marker.Use(authMW, middleware.RequireRole(models.RoleMarker))
	marker.HandleFunc("/labels", r.getMarkerLabels).Methods("GET")
	marker.HandleFunc("/work", r.markerWork).Methods("POST")
	marker.HandleFunc("/statements", r.createStatement).Methods("POST")

	// Quality-control routes
	otk := r.PathPrefix("/api/otk").Subrouter()
	otk.Use(authMW, middleware.RequireRole(models.RoleOTK))
	otk.HandleFunc("/work", r.otkWork).Methods("POST")

	// Packer routes
	packer := r.PathPrefix("/api/packer").Subrouter()
	packer.Use(authMW, middleware.RequireRole(models.RolePacker))
	packer.HandleFunc("/work", r.packerWork).Methods("POST")

	// Director routes: statement review
	director := r.PathPrefix("/api/director").Subrouter()
	director.Use(authMW, middleware.RequireRole(models.RoleDirector))
	director.HandleFunc("/statements", r.listStatements).Methods("GET")
	director.HandleFunc("/statements/decide", r.decideStatement).Methods("POST")

	return r
}

// Handler returns the router wrapped with permissive CORS for station
// terminals on the shop-floor LAN.
func (r *Router) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		r.Router.ServeHTTP(w, req)
	})
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"server": "local",
	})
}

// getStatus returns the current status
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "running",
		"version": "1.0.0",
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
