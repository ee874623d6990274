package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Farizu224/vending-machine-web/internal/consult"
	"github.com/Farizu224/vending-machine-web/internal/domain"
)

func TestConsult_StartReturnsFirstQuestion(t *testing.T) {
	s := setupServer(t)

	rec := s.do(http.MethodPost, "/api/consultation/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decodeAs[ConsultationDTO](t, rec)
	assert.Equal(t, string(consult.StateAwaitingQuestion), dto.State)
	require.NotNil(t, dto.Question)
	assert.Equal(t, "q1", dto.Question.ID)
	assert.Empty(t, dto.Answers)
	assert.Equal(t, 0, dto.Progress.Answered)
}

func TestConsult_AnswerAdvancesToNextQuestion(t *testing.T) {
	s := setupServer(t)
	s.backend.diagnosisSteps = []domain.DiagnosisStep{{
		Question: &domain.Question{
			ID:      "q2",
			Text:    "Sudah berapa lama?",
			Options: []domain.Option{{ID: "opt-week", Text: "Kurang dari seminggu"}},
		},
	}}

	s.do(http.MethodPost, "/api/consultation/start", nil)
	rec := s.do(http.MethodPost, "/api/consultation/answer", AnswerRequestDTO{OptionID: "opt-tired"})
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decodeAs[ConsultationDTO](t, rec)
	require.NotNil(t, dto.Question)
	assert.Equal(t, "q2", dto.Question.ID)
	require.Len(t, dto.Answers, 1)
	assert.Equal(t, "Mudah lelah", dto.Answers[0].Answer)
	assert.Equal(t, 1, dto.Progress.Answered)
}

func TestConsult_AnswerReachesRecommendation(t *testing.T) {
	s := setupServer(t)
	s.backend.diagnosisSteps = []domain.DiagnosisStep{{
		Recommendation: &domain.Recommendation{ProductID: 1, ProductName: "Jamu Kunyit Asam"},
	}}

	s.do(http.MethodPost, "/api/consultation/start", nil)
	rec := s.do(http.MethodPost, "/api/consultation/answer", AnswerRequestDTO{OptionID: "opt-sleep"})
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decodeAs[ConsultationDTO](t, rec)
	assert.Equal(t, string(consult.StateComplete), dto.State)
	assert.Nil(t, dto.Question)
	require.NotNil(t, dto.Recommendation)
	assert.Equal(t, "Jamu Kunyit Asam", dto.Recommendation.ProductName)
}

func TestConsult_AnswerValidation(t *testing.T) {
	s := setupServer(t)
	s.do(http.MethodPost, "/api/consultation/start", nil)

	rec := s.do(http.MethodPost, "/api/consultation/answer", AnswerRequestDTO{OptionID: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/consultation/answer", AnswerRequestDTO{OptionID: "opt-nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConsult_AnswerBeforeStart(t *testing.T) {
	s := setupServer(t)

	rec := s.do(http.MethodPost, "/api/consultation/answer", AnswerRequestDTO{OptionID: "opt-tired"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConsult_BackRestoresQuestion(t *testing.T) {
	s := setupServer(t)
	s.backend.diagnosisSteps = []domain.DiagnosisStep{{
		Question: &domain.Question{ID: "q2", Text: "Sudah berapa lama?"},
	}}

	s.do(http.MethodPost, "/api/consultation/start", nil)
	s.do(http.MethodPost, "/api/consultation/answer", AnswerRequestDTO{OptionID: "opt-tired"})

	rec := s.do(http.MethodPost, "/api/consultation/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decodeAs[ConsultationDTO](t, rec)
	require.NotNil(t, dto.Question)
	assert.Equal(t, "q1", dto.Question.ID)
	assert.Empty(t, dto.Answers)
}

func TestConsult_Reset(t *testing.T) {
	s := setupServer(t)
	s.backend.diagnosisSteps = []domain.DiagnosisStep{{
		Recommendation: &domain.Recommendation{ProductID: 1, ProductName: "Jamu Kunyit Asam"},
	}}

	s.do(http.MethodPost, "/api/consultation/start", nil)
	s.do(http.MethodPost, "/api/consultation/answer", AnswerRequestDTO{OptionID: "opt-tired"})

	rec := s.do(http.MethodPost, "/api/consultation/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decodeAs[ConsultationDTO](t, rec)
	assert.Equal(t, string(consult.StateAwaitingQuestion), dto.State)
	assert.Nil(t, dto.Recommendation)
	require.NotNil(t, dto.Question)
	assert.Equal(t, "q1", dto.Question.ID)
}

func TestConsult_GetSnapshotWithoutStart(t *testing.T) {
	s := setupServer(t)

	rec := s.do(http.MethodGet, "/api/consultation", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decodeAs[ConsultationDTO](t, rec)
	assert.Equal(t, string(consult.StateIdle), dto.State)
	assert.Nil(t, dto.Question)
}

func TestConsult_Initialize(t *testing.T) {
	s := setupServer(t)

	rec := s.do(http.MethodPost, "/api/consultation/initialize", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, s.backend.initializeCalls)
}
