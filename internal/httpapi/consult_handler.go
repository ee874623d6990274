package httpapi

import (
	"context"
	"net/http"

	"github.com/Farizu224/vending-machine-web/internal/consult"
	"github.com/Farizu224/vending-machine-web/internal/domain"
	"github.com/Farizu224/vending-machine-web/internal/session"
)

// DiagnosisInitializer reseeds the expert-system knowledge base.
type DiagnosisInitializer interface {
	InitializeDiagnosis(ctx context.Context) error
}

type ConsultHandler struct {
	registry    *session.Registry
	initializer DiagnosisInitializer
}

func NewConsultHandler(registry *session.Registry, initializer DiagnosisInitializer) *ConsultHandler {
	return &ConsultHandler{registry: registry, initializer: initializer}
}

type AnswerRequestDTO struct {
	OptionID string `json:"option_id"`
}

// ConsultationDTO is a full snapshot of the wizard so the view can render
// any state from one response.
type ConsultationDTO struct {
	State          string                      `json:"state"`
	Question       *domain.Question            `json:"question,omitempty"`
	Answers        []domain.ConsultationAnswer `json:"answers"`
	Recommendation *domain.Recommendation      `json:"recommendation,omitempty"`
	Progress       consult.Progress            `json:"progress"`
}

func consultationDTO(s *consult.Session) ConsultationDTO {
	return ConsultationDTO{
		State:          string(s.State()),
		Question:       s.Current(),
		Answers:        s.Answers(),
		Recommendation: s.Recommendation(),
		Progress:       s.Progress(),
	}
}

func (h *ConsultHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, consultationDTO(entry.Consult))
}

func (h *ConsultHandler) Start(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	if err := entry.Consult.Start(r.Context()); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, consultationDTO(entry.Consult))
}

func (h *ConsultHandler) Answer(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	var req AnswerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OptionID == "" {
		respondError(w, http.StatusBadRequest, "option_id is required")
		return
	}

	if err := entry.Consult.Answer(r.Context(), req.OptionID); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, consultationDTO(entry.Consult))
}

func (h *ConsultHandler) Back(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	entry.Consult.Back()
	respondJSON(w, http.StatusOK, consultationDTO(entry.Consult))
}

// Initialize reseeds the backend's expert-system rules.
func (h *ConsultHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	if err := h.initializer.InitializeDiagnosis(r.Context()); err != nil {
		respondFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConsultHandler) Reset(w http.ResponseWriter, r *http.Request) {
	entry := SessionFromContext(r.Context())

	if err := entry.Consult.Reset(r.Context()); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, consultationDTO(entry.Consult))
}
