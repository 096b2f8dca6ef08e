package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hearthboard/hearthboard/internal/config"
	"github.com/hearthboard/hearthboard/internal/rest"
	"github.com/hearthboard/hearthboard/pkg/household"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type GoogleAuth struct {
	db          *pgxpool.Pool
	households  household.Provider
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(db *pgxpool.Pool, households household.Provider, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/integrations/google/auth/callback",
		Scopes:       []string{calendar.CalendarReadonlyScope},
	}

	return &GoogleAuth{db: db, households: households, oauthConfig: oauthConfig}
}

func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	currentHousehold, err := g.households.GetCurrentHousehold(r.Context())
	if err != nil {
		log.Error("unable to retrieve current household: ", err)
		http.Error(w, "unable to retrieve current household", http.StatusInternalServerError)
		return
	}
	householdId := currentHousehold.Id

	stateNonce := uuid.New().String()
	finalUrl := r.URL.Query().Get("finalUrl")

	// Replace any previous auth row; the nonce ties the callback back to the
	// household.
	_, err = g.db.Exec(r.Context(),
		`INSERT INTO google_calendar_auth (household_id, nonce) VALUES ($1, $2)
		 ON CONFLICT (household_id)
		 DO UPDATE SET nonce = EXCLUDED.nonce, access_token = NULL, refresh_token = NULL, expiry = NULL, updated_at = now()`,
		householdId, stateNonce)
	if err != nil {
		log.Errorf("failed to store Google auth nonce for household %d: %v", householdId, err)
		w.WriteHeader(http.StatusInternalServerError)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Failed to handle Google authentication",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	u := g.oauthConfig.AuthCodeURL(finalUrl+"|"+stateNonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	w.WriteHeader(http.StatusOK)
	encodeErr := json.NewEncoder(w).Encode(googleAuthRedirect{
		RedirectUrl: u,
	})
	if encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}

func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	code := r.FormValue("code")
	state := r.FormValue("state")

	parts := strings.SplitN(state, "|", 2)
	if len(parts) != 2 {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	finalUrl := parts[0]
	nonce := parts[1]

	token, err := g.oauthConfig.Exchange(context.Background(), code)
	if err != nil {
		err := fmt.Errorf("unable to exchange code for token: %v", err)
		log.Error(err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	_, err = g.db.Exec(r.Context(),
		`UPDATE google_calendar_auth
		 SET access_token = $1, refresh_token = $2, expiry = $3, updated_at = now()
		 WHERE nonce = $4`,
		token.AccessToken, token.RefreshToken, token.Expiry.Unix(), nonce)
	if err != nil {
		err := fmt.Errorf("unable to store Google auth token for nonce: %v", err)
		log.Error(err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	log.Debug("Successfully stored Google auth token for nonce: ", nonce)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	householdId, err := household.CurrentId(r.Context())
	if err != nil {
		log.Error("unable to retrieve current household: ", err)
		http.Error(w, "unable to retrieve current household", http.StatusInternalServerError)
		return
	}
	_, err = g.db.Exec(r.Context(), "DELETE FROM google_calendar_auth WHERE household_id = $1", householdId)

	if err != nil {
		log.Errorf("failed to delete Google auth row for household %d: %v", householdId, err)
		w.WriteHeader(http.StatusInternalServerError)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Failed to handle Google authentication",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *GoogleAuth) getToken(ctx context.Context, householdId int) (*oauth2.Token, error) {
	var token oauth2.Token
	var accessToken, refreshToken *string
	var expiryTimestamp *int64
	err := g.db.QueryRow(ctx,
		"SELECT access_token, refresh_token, expiry FROM google_calendar_auth WHERE household_id = $1",
		householdId,
	).Scan(&accessToken, &refreshToken, &expiryTimestamp)
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google auth token: %v", err)
	}
	if accessToken == nil || refreshToken == nil || expiryTimestamp == nil {
		// A login started but the callback never completed.
		return nil, nil
	}

	token.AccessToken = *accessToken
	token.RefreshToken = *refreshToken
	token.Expiry = time.Unix(*expiryTimestamp, 0)
	return &token, nil
}

func (g *GoogleAuth) getClient(ctx context.Context, householdId int) (*http.Client, error) {
	token, err := g.getToken(ctx, householdId)
	if err != nil {
		log.Error(err)
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	return g.oauthConfig.Client(context.Background(), token), nil
}
