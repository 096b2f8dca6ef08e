package household

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hearthboard/hearthboard/internal/rest"
	log "github.com/sirupsen/logrus"
)

type HouseholdDTO struct {
	Uid      string      `json:"uid"`
	Name     string      `json:"name"`
	Settings SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Timezone         string `json:"timezone"`
	GoogleCalendarId string `json:"googleCalendarId,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) CurrentHousehold(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	current, err := Current(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err := json.NewEncoder(w).Encode(householdToDTO(current)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) CreateHousehold(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Creating new household")

	var dto HouseholdDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	created, err := h.service.Create(r.Context(), dtoToHousehold(dto))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(householdToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid request body format",
		}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	updated, err := h.service.UpdateSettings(r.Context(), Settings{
		Timezone:         dto.Timezone,
		GoogleCalendarId: dto.GoogleCalendarId,
	})
	if err != nil {
		if errors.Is(err, ErrNoHousehold) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(SettingsDTO{
		Timezone:         updated.Timezone,
		GoogleCalendarId: updated.GoogleCalendarId,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func householdToDTO(h Household) HouseholdDTO {
	return HouseholdDTO{
		Uid:  h.Uid,
		Name: h.Name,
		Settings: SettingsDTO{
			Timezone:         h.Settings.Timezone,
			GoogleCalendarId: h.Settings.GoogleCalendarId,
		},
	}
}

func dtoToHousehold(dto HouseholdDTO) Household {
	return Household{
		Uid:  dto.Uid,
		Name: dto.Name,
		Settings: Settings{
			Timezone:         dto.Settings.Timezone,
			GoogleCalendarId: dto.Settings.GoogleCalendarId,
		},
	}
}
