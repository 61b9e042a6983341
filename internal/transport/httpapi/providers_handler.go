package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookwell/backend/internal/service/scheduling"
)

type providerCardResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Qualification   string  `json:"qualification"`
	PricePerSession float64 `json:"pricePerSession"`
}

type settingsRequest struct {
	PricePerSession float64             `json:"pricePerSession" binding:"required"`
	Availability    map[string][]string `json:"availability"`
}

type settingsResponse struct {
	PricePerSession float64             `json:"pricePerSession"`
	Availability    map[string][]string `json:"availability"`
}

func toSettingsResponse(s scheduling.ProviderSettings) settingsResponse {
	week := make(map[string][]string, len(s.Week))
	for day, times := range s.Week {
		week[string(day)] = times
	}
	return settingsResponse{PricePerSession: s.PricePerSession, Availability: week}
}

func (a *API) listProviders(c *gin.Context) {
	cards, err := a.svc.ListProviders(c.Request.Context())
	if err != nil {
		a.writeServiceError(c, "list_providers", err)
		return
	}

	out := make([]providerCardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, providerCardResponse{
			ID:              card.ID.String(),
			Name:            card.Name,
			Qualification:   card.Qualification,
			PricePerSession: card.PricePerSession,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) providerSlots(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider id must be a UUID", "code": "invalid_input"})
		return
	}
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required", "code": "invalid_input"})
		return
	}

	slots, err := a.svc.AvailableSlotsOn(c.Request.Context(), providerID, date)
	if err != nil {
		a.writeServiceError(c, "provider_slots", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}

func (a *API) mySettings(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
		return
	}

	settings, err := a.svc.ProviderSettings(c.Request.Context(), caller)
	if err != nil {
		a.writeServiceError(c, "my_settings", err)
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(settings))
}

func (a *API) updateSettings(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
		return
	}

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "invalid_input"})
		return
	}

	settings, err := a.svc.UpdateProviderSettings(c.Request.Context(), caller, scheduling.SettingsInput{
		PricePerSession: req.PricePerSession,
		Availability:    req.Availability,
	})
	if err != nil {
		a.writeServiceError(c, "update_settings", err)
		return
	}

	slots := 0
	for _, times := range settings.Week {
		slots += len(times)
	}
	a.log.Info("provider settings replaced",
		slog.String("provider_id", caller.ID.String()),
		slog.Int("slot_count", slots),
	)
	c.JSON(http.StatusOK, toSettingsResponse(settings))
}
