package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookwell/backend/internal/domain"
	"bookwell/backend/internal/service/scheduling"
	"bookwell/backend/internal/store"
)

// schedulingService is the slice of the scheduling service the transport
// needs.
type schedulingService interface {
	CreateBooking(ctx context.Context, caller scheduling.Caller, in scheduling.CreateInput) (domain.Booking, error)
	ListForSubject(ctx context.Context, caller scheduling.Caller) ([]scheduling.BookingDetail, error)
	ListForProvider(ctx context.Context, caller scheduling.Caller) ([]scheduling.BookingDetail, error)
	Approve(ctx context.Context, caller scheduling.Caller, bookingID uuid.UUID) (domain.Booking, error)
	Decline(ctx context.Context, caller scheduling.Caller, bookingID uuid.UUID, message string) (domain.Booking, error)
	RevertPending(ctx context.Context, caller scheduling.Caller, bookingID uuid.UUID) (domain.Booking, error)
	Reschedule(ctx context.Context, caller scheduling.Caller, bookingID uuid.UUID, in scheduling.RescheduleInput) (domain.Booking, error)
	Cancel(ctx context.Context, caller scheduling.Caller, bookingID uuid.UUID) (domain.Booking, error)

	UpdateProviderSettings(ctx context.Context, caller scheduling.Caller, in scheduling.SettingsInput) (scheduling.ProviderSettings, error)
	ProviderSettings(ctx context.Context, caller scheduling.Caller) (scheduling.ProviderSettings, error)
	ListProviders(ctx context.Context) ([]scheduling.ProviderCard, error)
	AvailableSlotsOn(ctx context.Context, providerID uuid.UUID, date string) ([]string, error)
}

type API struct {
	svc schedulingService
	log *slog.Logger
}

func NewAPI(svc schedulingService, log *slog.Logger) *API {
	if log == nil {
		log = slog.Default()
	}
	return &API{
		svc: svc,
		log: log.With(slog.String("component", "httpapi")),
	}
}

func NewRouter(api *API, jwtSecret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := r.Group("/api", Identity(jwtSecret))

	authed.POST("/bookings", api.createBooking)
	authed.GET("/bookings/me", api.myBookings)
	authed.GET("/bookings/provider/me", api.providerBookings)
	authed.PUT("/bookings/:id/approve", api.approveBooking)
	authed.PUT("/bookings/:id/decline", api.declineBooking)
	authed.PUT("/bookings/:id/revert", api.revertBooking)
	authed.PUT("/bookings/:id/reschedule", api.rescheduleBooking)
	authed.DELETE("/bookings/:id", api.cancelBooking)

	authed.GET("/providers", api.listProviders)
	authed.GET("/providers/:id/slots", api.providerSlots)
	authed.GET("/providers/me/settings", api.mySettings)
	authed.PUT("/providers/me/settings", api.updateSettings)

	return r
}

// writeServiceError maps each service error kind to a distinct status and
// stable code string; nothing gets coerced into a generic failure.
func (a *API) writeServiceError(c *gin.Context, op string, err error) {
	var vErr *scheduling.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "code": "invalid_input"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "not_found"})
	case errors.Is(err, scheduling.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": scheduling.ErrForbidden.Error(), "code": "forbidden"})
	case errors.Is(err, scheduling.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": scheduling.ErrInvalidRole.Error(), "code": "invalid_role"})
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": scheduling.ErrSlotUnavailable.Error(), "code": "slot_unavailable"})
	case errors.Is(err, scheduling.ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{"error": scheduling.ErrSlotTaken.Error(), "code": "slot_taken"})
	case errors.Is(err, scheduling.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": scheduling.ErrInvalidState.Error(), "code": "invalid_state"})
	default:
		a.log.Error("request failed", slog.String("op", op), slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
	}
}
