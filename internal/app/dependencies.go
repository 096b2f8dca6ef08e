package app

import (
	"github.com/hearthboard/hearthboard/internal/config"
	"github.com/hearthboard/hearthboard/internal/event_bus"
	"github.com/hearthboard/hearthboard/pkg/calendar"
	"github.com/hearthboard/hearthboard/pkg/google"
	"github.com/hearthboard/hearthboard/pkg/household"
	"github.com/hearthboard/hearthboard/pkg/person"
	"github.com/hearthboard/hearthboard/pkg/tag"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus

	HouseholdService household.Service
	HouseholdHandler *household.Handler

	GoogleAuth    *google.GoogleAuth
	GoogleService google.Service
	GoogleHandler *google.Handler
	GoogleFeed    *google.Feed

	TagRepo    tag.Repository
	PersonRepo person.Repository

	CalendarTxManager       calendar.TxManager
	CalendarEventRepo       calendar.EventRepository
	CalendarExceptionRepo   calendar.ExceptionRepository
	CalendarMutationService calendar.MutationService
	CalendarQueryService    calendar.QueryService
	CalendarHandler         *calendar.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()

	deps.HouseholdService = household.NewService(household.NewRepository(db))
	deps.HouseholdHandler = household.NewHandler(deps.HouseholdService)

	deps.GoogleAuth = google.NewGoogleAuth(db, deps.HouseholdService, cfg)
	deps.GoogleService = google.NewService(deps.GoogleAuth)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService)
	deps.GoogleFeed = google.NewFeed(deps.GoogleAuth, deps.HouseholdService)

	deps.TagRepo = tag.NewRepository(db)
	deps.PersonRepo = person.NewRepository(db)

	deps.CalendarTxManager = calendar.NewTxManager(db)
	deps.CalendarEventRepo = calendar.NewEventRepository(db)
	deps.CalendarExceptionRepo = calendar.NewExceptionRepository(db)
	deps.CalendarMutationService = calendar.NewMutationService(
		deps.CalendarTxManager,
		deps.CalendarEventRepo,
		deps.TagRepo,
		deps.PersonRepo,
		deps.EventBus,
	)
	deps.CalendarQueryService = calendar.NewQueryService(deps.CalendarTxManager, deps.GoogleFeed)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarQueryService, deps.CalendarMutationService)

	subscribeAuditLog(deps.EventBus)

	return deps
}

// subscribeAuditLog logs every calendar mutation published on the bus.
func subscribeAuditLog(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.CalendarEventCreatedType, func(e event_bus.EventT[event_bus.CalendarEventCreated]) error {
		log.Infof("calendar event created: id=%d title=%q recurring=%t", e.Data.EventId, e.Data.Title, e.Data.Recurring)
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.CalendarEventUpdatedType, func(e event_bus.EventT[event_bus.CalendarEventUpdated]) error {
		if e.Data.Occurrence != nil {
			log.Infof("calendar occurrence updated: series=%d occurrence=%s", e.Data.EventId, e.Data.Occurrence.Format("2006-01-02T15:04:05Z07:00"))
		} else {
			log.Infof("calendar event updated: id=%d", e.Data.EventId)
		}
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.CalendarEventDeletedType, func(e event_bus.EventT[event_bus.CalendarEventDeleted]) error {
		if e.Data.Occurrence != nil {
			log.Infof("calendar occurrence deleted: series=%d occurrence=%s", e.Data.EventId, e.Data.Occurrence.Format("2006-01-02T15:04:05Z07:00"))
		} else {
			log.Infof("calendar event deleted: id=%d", e.Data.EventId)
		}
		return nil
	})
}
