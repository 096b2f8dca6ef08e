package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/hearthboard/hearthboard/internal/rest"
	"github.com/hearthboard/hearthboard/pkg/person"
	"github.com/hearthboard/hearthboard/pkg/tag"
	log "github.com/sirupsen/logrus"
)

type RecurrenceDTO struct {
	Frequency string  `json:"frequency"`
	Interval  int     `json:"interval"`
	Until     *string `json:"until,omitempty"`
}

type PersonDTO struct {
	Id    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type TagDTO struct {
	Id    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type OccurrenceDTO struct {
	SeriesId     int64          `json:"seriesId"`
	OccurrenceId string         `json:"occurrenceId"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Location     string         `json:"location,omitempty"`
	StartAt      string         `json:"startAt"`
	EndAt        *string        `json:"endAt"`
	AllDay       bool           `json:"allDay"`
	Recurrence   *RecurrenceDTO `json:"recurrence"`
	Persons      []PersonDTO    `json:"persons"`
	Tag          *TagDTO        `json:"tag"`
	CreatedAt    string         `json:"createdAt"`
	UpdatedAt    string         `json:"updatedAt"`
}

type EventRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	StartAt     string         `json:"startAt"`
	EndAt       string         `json:"endAt"`
	AllDay      bool           `json:"allDay"`
	TagId       *int           `json:"tagId"`
	PersonIds   []int          `json:"personIds"`
	Recurrence  *RecurrenceDTO `json:"recurrence"`
}

// EventPatchRequest carries a sparse update: absent fields stay untouched.
// An empty endAt clears the end time, tagId 0 clears the tag, and an empty
// recurrence frequency removes the recurrence.
type EventPatchRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Location    *string        `json:"location"`
	StartAt     *string        `json:"startAt"`
	EndAt       *string        `json:"endAt"`
	AllDay      *bool          `json:"allDay"`
	TagId       *int           `json:"tagId"`
	PersonIds   []int          `json:"personIds"`
	Recurrence  *RecurrenceDTO `json:"recurrence"`
}

type Handler struct {
	queryService    QueryService
	mutationService MutationService
}

func NewHandler(queryService QueryService, mutationService MutationService) *Handler {
	return &Handler{queryService, mutationService}
}

func (h *Handler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeBadRequest(w, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeBadRequest(w, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return
	}

	occurrences, err := h.queryService.ListBetween(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]OccurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		dtos = append(dtos, occurrenceToDTO(occurrence))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Creating new calendar event")

	var request EventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body format", "")
		return
	}
	event, err := requestToEvent(request)
	if err != nil {
		writeBadRequest(w, "Invalid event", err.Error())
		return
	}

	stored, err := h.mutationService.Insert(r.Context(), event)
	if err != nil {
		if errors.Is(err, ErrInvalidReference) || errors.Is(err, ErrInvalidRecurrence) {
			writeBadRequest(w, err.Error(), "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(occurrenceToDTO(occurrenceOf(stored, stored.StartTime))); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := eventIdFromPath(w, r)
	if !ok {
		return
	}

	var request EventPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body format", "")
		return
	}
	patch, err := requestToPatch(request)
	if err != nil {
		writeBadRequest(w, "Invalid event patch", err.Error())
		return
	}

	updated, err := h.mutationService.PatchSeries(r.Context(), eventId, patch)
	if err != nil {
		if errors.Is(err, ErrInvalidReference) || errors.Is(err, ErrInvalidRecurrence) {
			writeBadRequest(w, err.Error(), "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if updated == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(occurrenceToDTO(occurrenceOf(*updated, updated.StartTime))); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := eventIdFromPath(w, r)
	if !ok {
		return
	}

	deleted, err := h.mutationService.DeleteSeries(r.Context(), eventId)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateOccurrence(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := eventIdFromPath(w, r)
	if !ok {
		return
	}
	occurrenceStartAt, ok := occurrenceStartFromPath(w, r)
	if !ok {
		return
	}

	var request EventPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body format", "")
		return
	}
	patch, err := requestToPatch(request)
	if err != nil {
		writeBadRequest(w, "Invalid event patch", err.Error())
		return
	}

	occurrence, err := h.mutationService.EditOccurrence(r.Context(), eventId, occurrenceStartAt, patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotRecurring), errors.Is(err, ErrInvalidOccurrenceKey),
			errors.Is(err, ErrInvalidReference):
			writeBadRequest(w, err.Error(), "")
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if occurrence == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(occurrenceToDTO(*occurrence)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) DeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := eventIdFromPath(w, r)
	if !ok {
		return
	}
	occurrenceStartAt, ok := occurrenceStartFromPath(w, r)
	if !ok {
		return
	}

	deleted, err := h.mutationService.DeleteOccurrence(r.Context(), eventId, occurrenceStartAt)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotRecurring), errors.Is(err, ErrInvalidOccurrenceKey):
			writeBadRequest(w, err.Error(), "")
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if !deleted {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func eventIdFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	eventId, err := strconv.ParseInt(mux.Vars(r)["eventId"], 10, 64)
	if err != nil {
		writeBadRequest(w, "Invalid event id", "")
		return 0, false
	}
	return eventId, true
}

func occurrenceStartFromPath(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	startAt, err := time.Parse(time.RFC3339, mux.Vars(r)["occurrenceStart"])
	if err != nil {
		writeBadRequest(w, "Invalid occurrence start time", "Occurrence start must be in RFC3339 format")
		return time.Time{}, false
	}
	return startAt, true
}

func writeBadRequest(w http.ResponseWriter, message, details string) {
	w.WriteHeader(http.StatusBadRequest)
	if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
		Error:   message,
		Details: details,
	}); encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}

func occurrenceToDTO(o Occurrence) OccurrenceDTO {
	var endAt *string
	if o.EndTime != nil {
		formatted := o.EndTime.UTC().Format(time.RFC3339)
		endAt = &formatted
	}
	var recurrence *RecurrenceDTO
	if o.Recurrence != nil {
		recurrence = &RecurrenceDTO{
			Frequency: string(o.Recurrence.Frequency),
			Interval:  o.Recurrence.Interval,
		}
		if o.Recurrence.Until != nil {
			formatted := o.Recurrence.Until.UTC().Format(time.RFC3339)
			recurrence.Until = &formatted
		}
	}
	persons := make([]PersonDTO, 0, len(o.Persons))
	for _, p := range o.Persons {
		persons = append(persons, PersonDTO{Id: p.Id, Name: p.Name, Color: p.Color})
	}
	var tagDTO *TagDTO
	if o.Tag != nil {
		tagDTO = &TagDTO{Id: o.Tag.Id, Name: o.Tag.Name, Color: o.Tag.Color}
	}
	return OccurrenceDTO{
		SeriesId:     o.SeriesId,
		OccurrenceId: o.OccurrenceId,
		Title:        o.Title,
		Description:  o.Description,
		Location:     o.Location,
		StartAt:      o.StartTime.UTC().Format(time.RFC3339),
		EndAt:        endAt,
		AllDay:       o.AllDay,
		Recurrence:   recurrence,
		Persons:      persons,
		Tag:          tagDTO,
		CreatedAt:    o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    o.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func requestToEvent(request EventRequest) (Event, error) {
	if request.Title == "" {
		return Event{}, errors.New("title is required")
	}
	startAt, err := time.Parse(time.RFC3339, request.StartAt)
	if err != nil {
		return Event{}, errors.New("startAt must be in RFC3339 format")
	}
	event := Event{
		Title:       request.Title,
		Description: request.Description,
		Location:    request.Location,
		StartTime:   startAt,
		AllDay:      request.AllDay,
	}
	if request.EndAt != "" {
		endAt, err := time.Parse(time.RFC3339, request.EndAt)
		if err != nil {
			return Event{}, errors.New("endAt must be in RFC3339 format")
		}
		event.EndTime = &endAt
	}
	if request.TagId != nil {
		event.Tag = &tag.Tag{Id: *request.TagId}
	}
	for _, id := range request.PersonIds {
		event.Persons = append(event.Persons, person.Person{Id: id})
	}
	if request.Recurrence != nil {
		recurrence, err := dtoToRecurrence(*request.Recurrence)
		if err != nil {
			return Event{}, err
		}
		event.Recurrence = recurrence
	}
	return event, nil
}

func requestToPatch(request EventPatchRequest) (EventPatch, error) {
	var patch EventPatch
	if request.Title != nil {
		patch.Title = Some(*request.Title)
	}
	if request.Description != nil {
		patch.Description = Some(*request.Description)
	}
	if request.Location != nil {
		patch.Location = Some(*request.Location)
	}
	if request.StartAt != nil {
		startAt, err := time.Parse(time.RFC3339, *request.StartAt)
		if err != nil {
			return EventPatch{}, errors.New("startAt must be in RFC3339 format")
		}
		patch.StartTime = Some(startAt)
	}
	if request.EndAt != nil {
		if *request.EndAt == "" {
			patch.EndTime = Some[*time.Time](nil)
		} else {
			endAt, err := time.Parse(time.RFC3339, *request.EndAt)
			if err != nil {
				return EventPatch{}, errors.New("endAt must be in RFC3339 format")
			}
			patch.EndTime = Some(&endAt)
		}
	}
	if request.AllDay != nil {
		patch.AllDay = Some(*request.AllDay)
	}
	if request.TagId != nil {
		if *request.TagId == 0 {
			patch.TagId = Some[*int](nil)
		} else {
			patch.TagId = Some(request.TagId)
		}
	}
	if request.PersonIds != nil {
		patch.PersonIds = Some(request.PersonIds)
	}
	if request.Recurrence != nil {
		if request.Recurrence.Frequency == "" {
			patch.Recurrence = Some[*Recurrence](nil)
		} else {
			recurrence, err := dtoToRecurrence(*request.Recurrence)
			if err != nil {
				return EventPatch{}, err
			}
			patch.Recurrence = Some(recurrence)
		}
	}
	return patch, nil
}

func dtoToRecurrence(dto RecurrenceDTO) (*Recurrence, error) {
	recurrence := &Recurrence{
		Frequency: Frequency(dto.Frequency),
		Interval:  dto.Interval,
	}
	if dto.Until != nil {
		until, err := time.Parse(time.RFC3339, *dto.Until)
		if err != nil {
			return nil, errors.New("recurrence until must be in RFC3339 format")
		}
		recurrence.Until = &until
	}
	return recurrence, nil
}
