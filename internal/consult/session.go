package consult

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Farizu224/vending-machine-web/internal/domain"
)

var (
	// ErrConsultationInit wraps failures to obtain a session from the
	// diagnosis service. The caller surfaces a retryable notice.
	ErrConsultationInit = errors.New("failed to start consultation")

	// ErrConsultationAnswer wraps failures to submit an answer. Local state
	// is untouched so the same question can be retried.
	ErrConsultationAnswer = errors.New("failed to submit answer")

	// ErrAnswerInFlight is returned when an answer is submitted while a
	// previous one is still awaiting the remote service.
	ErrAnswerInFlight = errors.New("answer already in flight")

	// ErrNotStarted is returned for operations that need an active session.
	ErrNotStarted = errors.New("consultation not started")

	// ErrSessionRestarted is returned when an in-flight answer completes
	// after the session was restarted; the result belongs to the dead
	// session and is discarded.
	ErrSessionRestarted = errors.New("consultation restarted while answer was in flight")

	// ErrUnknownOption is returned when the selected option id does not
	// belong to the current question.
	ErrUnknownOption = errors.New("unknown option for current question")
)

// State is the wizard position. The session is always in exactly one state.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingQuestion State = "awaiting_question"
	StateComplete         State = "complete"
)

// DiagnosisClient is the slice of the remote API the session needs.
type DiagnosisClient interface {
	StartDiagnosis(ctx context.Context) (*domain.DiagnosisStart, error)
	Diagnose(ctx context.Context, answer domain.DiagnosisAnswer) (*domain.DiagnosisStep, error)
}

// Session drives the expert-system wizard for one browsing session. The
// backend owns the question graph; the session tracks the displayed question,
// the ordered answer history and back-navigation over it.
type Session struct {
	mu     sync.Mutex
	api    DiagnosisClient
	policy ProgressPolicy

	state          State
	sessionID      string
	current        *domain.Question
	questions      []domain.Question
	answers        []domain.ConsultationAnswer
	recommendation *domain.Recommendation
	inFlight       bool

	// gen counts session restarts. An in-flight answer remembers the
	// generation it was issued under and its completion is discarded when
	// the generation moved on.
	gen uint64
}

// NewSession creates an idle session. policy may be nil, in which case the
// default question budget is used for progress reporting.
func NewSession(api DiagnosisClient, policy ProgressPolicy) *Session {
	return &Session{api: api, policy: policy, state: StateIdle}
}

// Start obtains a session id and the first question from the diagnosis
// service. On failure the session stays idle.
func (s *Session) Start(ctx context.Context) error {
	start, err := s.api.StartDiagnosis(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConsultationInit, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.sessionID = start.SessionID
	s.current = &start.Question
	s.questions = []domain.Question{start.Question}
	s.answers = nil
	s.recommendation = nil
	s.inFlight = false
	s.state = StateAwaitingQuestion
	return nil
}

// Answer submits the selected option for the current question. On a
// non-terminal response the next question is displayed; on a terminal
// response the session completes with a recommendation. Remote failure
// leaves state untouched so the prior question stays displayed for retry.
func (s *Session) Answer(ctx context.Context, optionID string) error {
	s.mu.Lock()
	if s.state != StateAwaitingQuestion || s.current == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrAnswerInFlight
	}

	var selected *domain.Option
	for i := range s.current.Options {
		if s.current.Options[i].ID == optionID {
			selected = &s.current.Options[i]
			break
		}
	}
	if selected == nil {
		s.mu.Unlock()
		return ErrUnknownOption
	}

	answered := domain.ConsultationAnswer{
		QuestionID: s.current.ID,
		Question:   s.current.Text,
		OptionID:   selected.ID,
		Answer:     selected.Text,
	}
	payload := domain.DiagnosisAnswer{
		SessionID:        s.sessionID,
		QuestionID:       s.current.ID,
		SelectedOptionID: selected.ID,
	}
	s.inFlight = true
	gen := s.gen
	s.mu.Unlock()

	step, err := s.api.Diagnose(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// The session was restarted while this answer was on the wire. The
		// restart already reset inFlight; a newer answer may own it now.
		return ErrSessionRestarted
	}
	s.inFlight = false
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConsultationAnswer, err)
	}

	s.answers = append(s.answers, answered)
	switch {
	case step.Recommendation != nil:
		s.recommendation = step.Recommendation
		s.current = nil
		s.state = StateComplete
	case step.Question != nil:
		q := *step.Question
		s.current = &q
		s.questions = append(s.questions, q)
	default:
		// Backend sent neither; keep the answer recorded and stay on the
		// current question so the user can continue.
	}
	return nil
}

// Back pops the most recent answer and restores the question that was
// displayed before it. Purely local: the remote session is not informed, so
// its notion of the current question may diverge from what is displayed.
// No-op on empty history.
func (s *Session) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.answers) == 0 || s.inFlight {
		return
	}

	s.answers = s.answers[:len(s.answers)-1]
	if s.state == StateComplete {
		// The terminal answer produced no question history entry; the top
		// is the question that answer was given to.
		s.recommendation = nil
	} else if len(s.questions) > 1 {
		s.questions = s.questions[:len(s.questions)-1]
	}
	q := s.questions[len(s.questions)-1]
	s.current = &q
	s.state = StateAwaitingQuestion
}

// Reset clears all local state and starts a fresh session. An answer in
// flight at reset time belongs to the old session; its completion is
// discarded.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.state = StateIdle
	s.sessionID = ""
	s.current = nil
	s.questions = nil
	s.answers = nil
	s.recommendation = nil
	s.inFlight = false
	s.mu.Unlock()

	return s.Start(ctx)
}

// State returns the current wizard state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the question on display, nil when idle or complete.
func (s *Session) Current() *domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	q := *s.current
	return &q
}

// Recommendation returns the terminal result, nil until complete.
func (s *Session) Recommendation() *domain.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recommendation == nil {
		return nil
	}
	r := *s.recommendation
	return &r
}

// Answers returns a copy of the ordered answer history.
func (s *Session) Answers() []domain.ConsultationAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ConsultationAnswer, len(s.answers))
	copy(out, s.answers)
	return out
}

// Progress reports how far along the wizard is. The expected total comes
// from the injected policy and may change as answers accumulate.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	expected := DefaultMaxQuestions
	if s.policy != nil {
		expected = s.policy.ExpectedTotal(s.answers)
	}
	if expected < len(s.answers) {
		expected = len(s.answers)
	}
	return Progress{Answered: len(s.answers), ExpectedTotal: expected}
}

// Progress is the wizard position for the progress indicator.
type Progress struct {
	Answered      int `json:"answered"`
	ExpectedTotal int `json:"expectedTotal"`
}
