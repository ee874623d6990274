package consult

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Farizu224/vending-machine-web/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDiagnosis struct {
	mu       sync.Mutex
	startErr error
	steps    []stepResult
	calls    []domain.DiagnosisAnswer
}

type stepResult struct {
	step *domain.DiagnosisStep
	err  error
}

func question(id, text string) domain.Question {
	return domain.Question{
		ID:   id,
		Text: text,
		Options: []domain.Option{
			{ID: "yes", Text: "Ya"},
			{ID: "no", Text: "Tidak"},
		},
	}
}

func (m *mockDiagnosis) StartDiagnosis(context.Context) (*domain.DiagnosisStart, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	q := question("q1", "Apakah Anda sering merasa lelah?")
	return &domain.DiagnosisStart{SessionID: "sess-1", Question: q}, nil
}

func (m *mockDiagnosis) Diagnose(_ context.Context, answer domain.DiagnosisAnswer) (*domain.DiagnosisStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, answer)
	if len(m.steps) == 0 {
		return nil, errors.New("no scripted step")
	}
	next := m.steps[0]
	m.steps = m.steps[1:]
	return next.step, next.err
}

func nextQuestion(q domain.Question) stepResult {
	return stepResult{step: &domain.DiagnosisStep{Question: &q}}
}

func terminal(rec domain.Recommendation) stepResult {
	return stepResult{step: &domain.DiagnosisStep{Recommendation: &rec}}
}

func startedSession(t *testing.T, api *mockDiagnosis) *Session {
	s := NewSession(api, nil)
	require.NoError(t, s.Start(context.Background()))
	return s
}

func TestSession_Start(t *testing.T) {
	api := &mockDiagnosis{}
	s := startedSession(t, api)

	assert.Equal(t, StateAwaitingQuestion, s.State())
	require.NotNil(t, s.Current())
	assert.Equal(t, "q1", s.Current().ID)
	assert.Nil(t, s.Recommendation())
	assert.Empty(t, s.Answers())
}

func TestSession_Start_RemoteFailure(t *testing.T) {
	api := &mockDiagnosis{startErr: errors.New("boom")}
	s := NewSession(api, nil)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConsultationInit)
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Current())
}

func TestSession_Answer_NextQuestion(t *testing.T) {
	api := &mockDiagnosis{steps: []stepResult{nextQuestion(question("q2", "Apakah Anda sulit tidur?"))}}
	s := startedSession(t, api)

	require.NoError(t, s.Answer(context.Background(), "yes"))

	assert.Equal(t, StateAwaitingQuestion, s.State())
	require.NotNil(t, s.Current())
	assert.Equal(t, "q2", s.Current().ID)

	answers := s.Answers()
	require.Len(t, answers, 1)
	assert.Equal(t, "q1", answers[0].QuestionID)
	assert.Equal(t, "Ya", answers[0].Answer)

	require.Len(t, api.calls, 1)
	assert.Equal(t, domain.DiagnosisAnswer{SessionID: "sess-1", QuestionID: "q1", SelectedOptionID: "yes"}, api.calls[0])
}

func TestSession_Answer_Terminal(t *testing.T) {
	rec := domain.Recommendation{ProductID: 7, ProductName: "Jamu Kunyit Asam", Reason: "cocok untuk keluhan Anda"}
	api := &mockDiagnosis{steps: []stepResult{terminal(rec)}}
	s := startedSession(t, api)

	require.NoError(t, s.Answer(context.Background(), "no"))

	assert.Equal(t, StateComplete, s.State())
	assert.Nil(t, s.Current())
	require.NotNil(t, s.Recommendation())
	assert.Equal(t, rec, *s.Recommendation())
	assert.Len(t, s.Answers(), 1)
}

func TestSession_NeverBothQuestionAndRecommendation(t *testing.T) {
	api := &mockDiagnosis{steps: []stepResult{
		nextQuestion(question("q2", "next")),
		terminal(domain.Recommendation{ProductID: 1, ProductName: "Beras Kencur"}),
	}}
	s := startedSession(t, api)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Answer(context.Background(), "yes"))
		both := s.Current() != nil && s.Recommendation() != nil
		assert.False(t, both, "question and recommendation set simultaneously")
	}
}

func TestSession_Answer_RemoteFailureLeavesStateUntouched(t *testing.T) {
	api := &mockDiagnosis{steps: []stepResult{{err: errors.New("boom")}, nextQuestion(question("q2", "next"))}}
	s := startedSession(t, api)

	err := s.Answer(context.Background(), "yes")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConsultationAnswer)

	// prior question still displayed, nothing recorded
	require.NotNil(t, s.Current())
	assert.Equal(t, "q1", s.Current().ID)
	assert.Empty(t, s.Answers())
	assert.Equal(t, StateAwaitingQuestion, s.State())

	// retry succeeds
	require.NoError(t, s.Answer(context.Background(), "yes"))
	assert.Equal(t, "q2", s.Current().ID)
}

func TestSession_Answer_UnknownOption(t *testing.T) {
	api := &mockDiagnosis{}
	s := startedSession(t, api)

	err := s.Answer(context.Background(), "maybe")
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Empty(t, api.calls)
}

func TestSession_Answer_BeforeStart(t *testing.T) {
	s := NewSession(&mockDiagnosis{}, nil)
	assert.ErrorIs(t, s.Answer(context.Background(), "yes"), ErrNotStarted)
}

func TestSession_Back_RestoresPriorQuestion(t *testing.T) {
	api := &mockDiagnosis{steps: []stepResult{nextQuestion(question("q2", "next"))}}
	s := startedSession(t, api)
	before := s.Current()

	require.NoError(t, s.Answer(context.Background(), "yes"))
	require.Equal(t, "q2", s.Current().ID)

	s.Back()

	require.NotNil(t, s.Current())
	assert.Equal(t, *before, *s.Current())
	assert.Empty(t, s.Answers())
	assert.Equal(t, StateAwaitingQuestion, s.State())
}

func TestSession_Back_EmptyHistoryIsNoOp(t *testing.T) {
	api := &mockDiagnosis{}
	s := startedSession(t, api)

	s.Back()

	require.NotNil(t, s.Current())
	assert.Equal(t, "q1", s.Current().ID)
	assert.Equal(t, StateAwaitingQuestion, s.State())
}

func TestSession_Back_FromRecommendation(t *testing.T) {
	api := &mockDiagnosis{steps: []stepResult{terminal(domain.Recommendation{ProductID: 3, ProductName: "Temulawak"})}}
	s := startedSession(t, api)
	require.NoError(t, s.Answer(context.Background(), "yes"))
	require.Equal(t, StateComplete, s.State())

	s.Back()

	assert.Equal(t, StateAwaitingQuestion, s.State())
	assert.Nil(t, s.Recommendation())
	require.NotNil(t, s.Current())
	assert.Equal(t, "q1", s.Current().ID)
	assert.Empty(t, s.Answers())
}

func TestSession_Reset(t *testing.T) {
	api := &mockDiagnosis{steps: []stepResult{nextQuestion(question("q2", "next"))}}
	s := startedSession(t, api)
	require.NoError(t, s.Answer(context.Background(), "yes"))

	require.NoError(t, s.Reset(context.Background()))

	assert.Equal(t, StateAwaitingQuestion, s.State())
	assert.Equal(t, "q1", s.Current().ID)
	assert.Empty(t, s.Answers())
	assert.Nil(t, s.Recommendation())
}

func TestSession_Progress(t *testing.T) {
	policy := RulePolicy{
		Rules: []Rule{
			{
				Match: func(a domain.ConsultationAnswer) bool {
					return a.QuestionID == "q1" && strings.EqualFold(a.Answer, "Ya")
				},
				Total: 7,
			},
		},
		Fallback: 4,
	}
	api := &mockDiagnosis{steps: []stepResult{nextQuestion(question("q2", "next"))}}
	s := NewSession(api, policy)
	require.NoError(t, s.Start(context.Background()))

	// no answers yet: fallback applies
	assert.Equal(t, Progress{Answered: 0, ExpectedTotal: 4}, s.Progress())

	require.NoError(t, s.Answer(context.Background(), "yes"))
	assert.Equal(t, Progress{Answered: 1, ExpectedTotal: 7}, s.Progress())
}

func TestRulePolicy_Fallbacks(t *testing.T) {
	var p RulePolicy
	assert.Equal(t, DefaultMaxQuestions, p.ExpectedTotal(nil))

	p = RulePolicy{Rules: []Rule{{Match: func(domain.ConsultationAnswer) bool { return false }, Total: 9}}}
	answers := []domain.ConsultationAnswer{{QuestionID: "q1", Answer: "Tidak"}}
	assert.Equal(t, DefaultMaxQuestions, p.ExpectedTotal(answers))
}

// blockingDiagnosis parks Diagnose until released so concurrent calls can be
// arranged deterministically.
type blockingDiagnosis struct {
	mockDiagnosis
	entered chan struct{}
	release chan struct{}
}

func (m *blockingDiagnosis) Diagnose(ctx context.Context, answer domain.DiagnosisAnswer) (*domain.DiagnosisStep, error) {
	m.entered <- struct{}{}
	<-m.release
	return m.mockDiagnosis.Diagnose(ctx, answer)
}

func TestSession_Answer_RejectsConcurrentAnswer(t *testing.T) {
	api := &blockingDiagnosis{
		mockDiagnosis: mockDiagnosis{steps: []stepResult{nextQuestion(question("q2", "Apakah Anda sulit tidur?"))}},
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	s := NewSession(api, nil)
	require.NoError(t, s.Start(context.Background()))

	done := make(chan error, 1)
	go func() { done <- s.Answer(context.Background(), "yes") }()
	<-api.entered

	err := s.Answer(context.Background(), "no")
	assert.ErrorIs(t, err, ErrAnswerInFlight)

	close(api.release)
	require.NoError(t, <-done)
	require.NotNil(t, s.Current())
	assert.Equal(t, "q2", s.Current().ID)
	assert.Len(t, s.Answers(), 1)
}

func TestSession_Reset_DiscardsInFlightAnswer(t *testing.T) {
	api := &blockingDiagnosis{
		mockDiagnosis: mockDiagnosis{steps: []stepResult{nextQuestion(question("q9", "Pertanyaan sesi lama?"))}},
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	s := NewSession(api, nil)
	require.NoError(t, s.Start(context.Background()))

	done := make(chan error, 1)
	go func() { done <- s.Answer(context.Background(), "yes") }()
	<-api.entered

	// restart while the answer is on the wire
	require.NoError(t, s.Reset(context.Background()))
	close(api.release)

	err := <-done
	assert.ErrorIs(t, err, ErrSessionRestarted)

	// nothing from the dead session's answer reaches the fresh one
	assert.Empty(t, s.Answers())
	require.NotNil(t, s.Current())
	assert.Equal(t, "q1", s.Current().ID)
	assert.Equal(t, StateAwaitingQuestion, s.State())
}

func TestSession_Answer_AcceptedAfterRestartDiscard(t *testing.T) {
	api := &blockingDiagnosis{
		mockDiagnosis: mockDiagnosis{steps: []stepResult{nextQuestion(question("q9", "Pertanyaan sesi lama?"))}},
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	s := NewSession(api, nil)
	require.NoError(t, s.Start(context.Background()))

	done := make(chan error, 1)
	go func() { done <- s.Answer(context.Background(), "yes") }()
	<-api.entered

	require.NoError(t, s.Reset(context.Background()))
	close(api.release)
	require.ErrorIs(t, <-done, ErrSessionRestarted)

	// the fresh session takes answers normally
	api.mu.Lock()
	api.steps = []stepResult{terminal(domain.Recommendation{ProductID: 1, ProductName: "Jamu Kunyit Asam"})}
	api.mu.Unlock()

	// release is closed, so Diagnose no longer parks; just drain entered
	go func() { <-api.entered }()
	require.NoError(t, s.Answer(context.Background(), "no"))
	assert.Equal(t, StateComplete, s.State())
	require.NotNil(t, s.Recommendation())
}
