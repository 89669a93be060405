package server

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.HandleFunc("/ws", handler.hub.ServeWS).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/chart", handler.GetChart).Methods("GET")
	api.HandleFunc("/chart.png", handler.GetChartPNG).Methods("GET")
	api.HandleFunc("/chart/click", handler.ClickChart).Methods("POST")
	api.HandleFunc("/sidebar", handler.GetSidebar).Methods("GET")
	api.HandleFunc("/sidebar/page", handler.PageSidebar).Methods("POST")
	api.HandleFunc("/sidebar/hover", handler.HoverSidebar).Methods("POST")
	api.HandleFunc("/trades", handler.GetTrades).Methods("GET")
	api.HandleFunc("/history", handler.GetHistory).Methods("GET")
	api.HandleFunc("/summary", handler.GetSummary).Methods("GET")
	api.HandleFunc("/pnl/daily", handler.GetDailyPnL).Methods("GET")
	api.HandleFunc("/pnl/tickers", handler.GetTickerPnL).Methods("GET")

	return r
}
