package domain

// Option is a selectable answer for a consultation question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a single step of the expert-system wizard, served by the
// backend together with its answer options.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// ConsultationAnswer records one answered question for the session summary
// and for back-navigation.
type ConsultationAnswer struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	OptionID   string `json:"selectedOptionId"`
	Answer     string `json:"answer"`
}

// Recommendation is the terminal result of a consultation.
type Recommendation struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason"`
}

// DiagnosisStart is the backend response to starting a diagnosis session.
type DiagnosisStart struct {
	SessionID string   `json:"sessionId"`
	Question  Question `json:"question"`
}

// DiagnosisAnswer is the payload submitted for each answered question.
type DiagnosisAnswer struct {
	SessionID        string `json:"sessionId"`
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
}

// DiagnosisStep is the backend response to a submitted answer: either the
// next question or a terminal recommendation, never both.
type DiagnosisStep struct {
	Question       *Question       `json:"question,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}
