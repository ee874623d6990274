package httpapi

import (
	"net/http"
	"time"

	"github.com/Farizu224/vending-machine-web/internal/domain"
	"github.com/Farizu224/vending-machine-web/internal/sensor"
)

type SensorHandler struct {
	poller *sensor.Poller
}

func NewSensorHandler(poller *sensor.Poller) *SensorHandler {
	return &SensorHandler{poller: poller}
}

type SensorDTO struct {
	Reading   *domain.SensorReading `json:"reading"`
	FetchedAt time.Time             `json:"fetched_at"`
	Stale     bool                  `json:"stale"`
}

// Latest serves the mirror, never the remote. A reading that survived a
// failed refresh is marked stale instead of being dropped.
func (h *SensorHandler) Latest(w http.ResponseWriter, r *http.Request) {
	reading, fetchedAt, err := h.poller.Latest()
	if reading == nil {
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondError(w, http.StatusServiceUnavailable, "no sensor reading yet")
		return
	}
	respondJSON(w, http.StatusOK, SensorDTO{
		Reading:   reading,
		FetchedAt: fetchedAt,
		Stale:     err != nil,
	})
}
