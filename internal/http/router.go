package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Participants *ParticipantHandler
	Availability *AvailabilityHandler
	Groups       *GroupHandler
	Teams        *TeamHandler
	Sessions     *SessionHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	if cfg.Participants != nil {
		api.HandleFunc("/participants", cfg.Participants.Create).Methods(http.MethodPost)
		api.HandleFunc("/participants", cfg.Participants.List).Methods(http.MethodGet)
		api.HandleFunc("/participants/{id}", cfg.Participants.Get).Methods(http.MethodGet)
		api.HandleFunc("/participants/{id}", cfg.Participants.Update).Methods(http.MethodPut)
		api.HandleFunc("/participants/{id}", cfg.Participants.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/participants/{id}/policy", cfg.Participants.GetPolicy).Methods(http.MethodGet)
		api.HandleFunc("/participants/{id}/policy", cfg.Participants.SetPolicy).Methods(http.MethodPut)
		api.HandleFunc("/participants/{id}/blocks", cfg.Participants.CreateBlock).Methods(http.MethodPost)
		api.HandleFunc("/participants/{id}/blocks", cfg.Participants.ListBlocks).Methods(http.MethodGet)
		api.HandleFunc("/participants/{id}/bookings", cfg.Participants.ListBookings).Methods(http.MethodGet)
		api.HandleFunc("/blocks/{blockID}", cfg.Participants.DeleteBlock).Methods(http.MethodDelete)
	}

	if cfg.Availability != nil {
		api.HandleFunc("/availability", cfg.Availability.Compute).Methods(http.MethodPost)
		api.HandleFunc("/availability/conflicts", cfg.Availability.CheckConflict).Methods(http.MethodPost)
		api.HandleFunc("/recurrence/parse", cfg.Availability.ParseRecurrence).Methods(http.MethodPost)
	}

	if cfg.Groups != nil {
		api.HandleFunc("/groups/availability", cfg.Groups.Resolve).Methods(http.MethodPost)
		api.HandleFunc("/groups/check", cfg.Groups.CheckSlot).Methods(http.MethodPost)
	}

	if cfg.Teams != nil {
		api.HandleFunc("/teams", cfg.Teams.Create).Methods(http.MethodPost)
		api.HandleFunc("/teams", cfg.Teams.List).Methods(http.MethodGet)
		api.HandleFunc("/teams/{id}", cfg.Teams.Get).Methods(http.MethodGet)
		api.HandleFunc("/teams/{id}", cfg.Teams.Update).Methods(http.MethodPut)
		api.HandleFunc("/teams/{id}", cfg.Teams.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/teams/{id}/members", cfg.Teams.AddMember).Methods(http.MethodPost)
		api.HandleFunc("/teams/{id}/members/{memberID}", cfg.Teams.RemoveMember).Methods(http.MethodDelete)
		api.HandleFunc("/teams/{id}/assign", cfg.Teams.Assign).Methods(http.MethodPost)
		api.HandleFunc("/teams/{id}/fairness", cfg.Teams.Fairness).Methods(http.MethodGet)
	}

	if cfg.Sessions != nil {
		api.HandleFunc("/sessions", cfg.Sessions.Propose).Methods(http.MethodPost)
		api.HandleFunc("/sessions/{id}", cfg.Sessions.Get).Methods(http.MethodGet)
		api.HandleFunc("/sessions/{id}/select", cfg.Sessions.Select).Methods(http.MethodPost)
		api.HandleFunc("/sessions/{id}/reschedule", cfg.Sessions.Reschedule).Methods(http.MethodPost)
		api.HandleFunc("/sessions/{id}/cancel", cfg.Sessions.Cancel).Methods(http.MethodPost)
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
