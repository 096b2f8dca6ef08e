package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hearthboard/hearthboard/internal/config"
	"github.com/hearthboard/hearthboard/pkg/household"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Propagate X-Household-Id header into context for downstream services
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			householdUid := req.Header.Get("X-Household-Id")
			ctx := req.Context()

			if householdUid != "" {
				h, err := deps.HouseholdService.GetByUid(ctx, householdUid)
				if err != nil {
					log.Errorf("failed to get household: %v", err)
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				if h == nil {
					log.Debugf("household not found: %s", householdUid)
					http.Error(w, "household not found", http.StatusForbidden)
					return
				}
				ctx = household.WithHousehold(ctx, *h)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
