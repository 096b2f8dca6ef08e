package app

import (
	"github.com/gorilla/mux"
	"github.com/hearthboard/hearthboard/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Calendar occurrences (windowed read)
	r.HandleFunc("/api/calendar/occurrence", deps.CalendarHandler.ListOccurrences).Queries("from", "{from}", "to", "{to}").Methods("GET")

	// Calendar events (series and single instances)
	r.HandleFunc("/api/calendar/event", deps.CalendarHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/calendar/event/{eventId}", deps.CalendarHandler.UpdateEvent).Methods("PATCH")
	r.HandleFunc("/api/calendar/event/{eventId}", deps.CalendarHandler.DeleteEvent).Methods("DELETE")

	// Occurrence-scoped overrides
	r.HandleFunc("/api/calendar/event/{eventId}/occurrence/{occurrenceStart}", deps.CalendarHandler.UpdateOccurrence).Methods("PUT")
	r.HandleFunc("/api/calendar/event/{eventId}/occurrence/{occurrenceStart}", deps.CalendarHandler.DeleteOccurrence).Methods("DELETE")

	// Household management
	r.HandleFunc("/api/household/current", deps.HouseholdHandler.CurrentHousehold).Methods("GET")
	r.HandleFunc("/api/household/current/settings", deps.HouseholdHandler.UpdateSettings).Methods("PUT")
	r.HandleFunc("/api/household", deps.HouseholdHandler.CreateHousehold).Methods("POST")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/calendars", deps.GoogleHandler.ListCalendars).Methods("GET")
}
