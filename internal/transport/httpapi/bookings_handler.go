package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookwell/backend/internal/domain"
	"bookwell/backend/internal/service/scheduling"
)

type createBookingRequest struct {
	ProviderID string `json:"providerId" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Time       string `json:"time" binding:"required"`
	PaymentRef string `json:"paymentRef"`
}

type rescheduleRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type declineRequest struct {
	Message string `json:"message"`
}

type counterpartResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type bookingResponse struct {
	ID              string               `json:"id"`
	SubjectID       string               `json:"subjectId"`
	ProviderID      string               `json:"providerId"`
	Date            string               `json:"date"`
	Time            string               `json:"time"`
	Status          string               `json:"status"`
	ProviderMessage string               `json:"providerMessage,omitempty"`
	PaymentRef      string               `json:"paymentRef,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	Counterpart     *counterpartResponse `json:"counterpart,omitempty"`
}

func toBookingResponse(b domain.Booking, counterpart *domain.User) bookingResponse {
	out := bookingResponse{
		ID:              b.ID.String(),
		SubjectID:       b.SubjectID.String(),
		ProviderID:      b.ProviderID.String(),
		Date:            domain.FormatDate(b.SessionDate),
		Time:            b.SessionTime,
		Status:          string(b.Status),
		ProviderMessage: b.ProviderMessage,
		PaymentRef:      b.PaymentRef,
		CreatedAt:       b.CreatedAt,
	}
	if counterpart != nil {
		out.Counterpart = &counterpartResponse{
			ID:    counterpart.ID.String(),
			Name:  counterpart.FullName(),
			Email: counterpart.Email,
			Phone: counterpart.Phone,
		}
	}
	return out
}

func (a *API) createBooking(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "invalid_input"})
		return
	}
	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "providerId must be a UUID", "code": "invalid_input"})
		return
	}

	b, err := a.svc.CreateBooking(c.Request.Context(), caller, scheduling.CreateInput{
		ProviderID: providerID,
		Date:       req.Date,
		Time:       req.Time,
		PaymentRef: req.PaymentRef,
	})
	if err != nil {
		a.writeServiceError(c, "create_booking", err)
		return
	}

	a.log.Info("booking created",
		slog.String("booking_id", b.ID.String()),
		slog.String("provider_id", b.ProviderID.String()),
		slog.String("date", domain.FormatDate(b.SessionDate)),
		slog.String("time", b.SessionTime),
	)
	c.JSON(http.StatusCreated, toBookingResponse(b, nil))
}

func (a *API) myBookings(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
		return
	}

	details, err := a.svc.ListForSubject(c.Request.Context(), caller)
	if err != nil {
		a.writeServiceError(c, "my_bookings", err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(details))
}

func (a *API) providerBookings(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
		return
	}

	details, err := a.svc.ListForProvider(c.Request.Context(), caller)
	if err != nil {
		a.writeServiceError(c, "provider_bookings", err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(details))
}

func toBookingResponses(details []scheduling.BookingDetail) []bookingResponse {
	out := make([]bookingResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toBookingResponse(d.Booking, d.Counterpart))
	}
	return out
}

func (a *API) approveBooking(c *gin.Context) {
	a.transition(c, "approve_booking", func(caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
		return a.svc.Approve(c.Request.Context(), caller, id)
	})
}

func (a *API) declineBooking(c *gin.Context) {
	var req declineRequest
	// Body is optional; a bare decline carries no message.
	_ = c.ShouldBindJSON(&req)

	a.transition(c, "decline_booking", func(caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
		return a.svc.Decline(c.Request.Context(), caller, id, req.Message)
	})
}

func (a *API) revertBooking(c *gin.Context) {
	a.transition(c, "revert_booking", func(caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
		return a.svc.RevertPending(c.Request.Context(), caller, id)
	})
}

func (a *API) rescheduleBooking(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "invalid_input"})
		return
	}

	a.transition(c, "reschedule_booking", func(caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
		return a.svc.Reschedule(c.Request.Context(), caller, id, scheduling.RescheduleInput{
			Date: req.Date,
			Time: req.Time,
		})
	})
}

func (a *API) cancelBooking(c *gin.Context) {
	a.transition(c, "cancel_booking", func(caller scheduling.Caller, id uuid.UUID) (domain.Booking, error) {
		return a.svc.Cancel(c.Request.Context(), caller, id)
	})
}

// transition funnels every single-booking mutation through the same caller,
// id-parsing and error-mapping path.
func (a *API) transition(c *gin.Context, op string, fn func(caller scheduling.Caller, id uuid.UUID) (domain.Booking, error)) {
	caller, ok := callerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking id must be a UUID", "code": "invalid_input"})
		return
	}

	b, err := fn(caller, id)
	if err != nil {
		a.writeServiceError(c, op, err)
		return
	}

	a.log.Info("booking updated",
		slog.String("op", op),
		slog.String("booking_id", b.ID.String()),
		slog.String("status", string(b.Status)),
	)
	c.JSON(http.StatusOK, toBookingResponse(b, nil))
}
