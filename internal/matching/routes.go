package matching

import (
    "github.com/gorilla/mux"

    "github.com/artmateapp/artmate-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
    api := router.PathPrefix("/api/v1/matching").Subrouter()
    api.Use(authMiddleware.Authenticate)

    // Match requests
    api.HandleFunc("/requests", handler.CreateMatchRequest).Methods("POST")
    api.HandleFunc("/requests/{id}/matches", handler.GetCompatibleMatches).Methods("GET")
    api.HandleFunc("/requests/{id}/accept", handler.AcceptMatch).Methods("POST")
    api.HandleFunc("/requests/{id}/reject", handler.RejectMatch).Methods("POST")
    api.HandleFunc("/requests/{id}/cancel", handler.CancelMatchRequest).Methods("POST")
    api.HandleFunc("/requests/{id}/feedback", handler.SubmitFeedback).Methods("POST")

    // Reporting
    api.HandleFunc("/analytics", handler.GetAnalytics).Methods("GET")
}
