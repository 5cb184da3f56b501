package study

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fkobayashi/studyagent/internal/inference"
)

const (
	// DefaultQuestionCount is used when a session is started without an
	// explicit question target.
	DefaultQuestionCount = 5

	// MinTopicContentLength is the minimum content body length a topic needs
	// to be quizzable.
	MinTopicContentLength = 100

	// MaxAnswerLength bounds a submitted answer.
	MaxAnswerLength = 4000
)

// Manager drives study sessions through their lifecycle:
// created -> presenting(i) -> awaiting_answer(i) -> evaluating(i) -> ... -> completed,
// with cancelled reachable from any non-terminal state. All state lives on the
// persisted session row, so a restarted process resumes where it stopped.
type Manager struct {
	sessions    SessionStore
	assessments AssessmentStore
	topics      TopicStore
	ledger      *Ledger
	inference   inference.Client
	now         func() time.Time
}

// NewManager creates a session manager.
func NewManager(
	sessions SessionStore,
	assessments AssessmentStore,
	topics TopicStore,
	ledger *Ledger,
	inferenceClient inference.Client,
) *Manager {
	return &Manager{
		sessions:    sessions,
		assessments: assessments,
		topics:      topics,
		ledger:      ledger,
		inference:   inferenceClient,
		now:         time.Now,
	}
}

// StartSession creates a session for the user and topic and moves it straight
// to presenting the first question. It returns ErrTopicUnavailable when the
// topic has no usable content and ErrSessionAlreadyActive when the user has a
// non-terminal session in flight.
func (m *Manager) StartSession(ctx context.Context, userID, topicID int64, trigger TriggerKind, questionCount int) (*StudySession, error) {
	if questionCount <= 0 {
		questionCount = DefaultQuestionCount
	}

	topic, err := m.topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("load topic %d: %w", topicID, err)
	}
	if len(strings.TrimSpace(topic.Content)) < MinTopicContentLength {
		return nil, fmt.Errorf("topic %d: %w", topicID, ErrTopicUnavailable)
	}

	session := &StudySession{
		UserID:        userID,
		TopicID:       topicID,
		TriggerKind:   trigger,
		State:         SessionStatePresenting,
		QuestionIndex: 0,
		QuestionCount: questionCount,
		StartedAt:     m.now(),
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	slog.Default().Info("Started study session",
		"sessionID", session.ID,
		"userID", userID,
		"topicID", topicID,
		"trigger", trigger)

	return session, nil
}

// ActiveSession returns the user's non-terminal session, or nil when none is
// in flight. It lets a caller re-attach to an interrupted session.
func (m *Manager) ActiveSession(ctx context.Context, userID int64) (*StudySession, error) {
	return m.sessions.FindActiveByUser(ctx, userID)
}

// PresentNext produces the session's current question and moves the session
// to awaiting the answer. On the first call it generates all of the session's
// questions through the inference collaborator; if generation fails after the
// client's bounded retries, the session is cancelled with reason
// generation_failed. When a resumed session's current question already has a
// stored evaluation, PresentNext advances past it instead of re-presenting,
// and returns ErrSessionFinished after applying the terminal transition when
// no question remains.
func (m *Manager) PresentNext(ctx context.Context, sessionID int64) (*Assessment, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.State {
	case SessionStatePresenting, SessionStateAwaitingAnswer, SessionStateEvaluating:
		// A session interrupted after presenting, or while an evaluation was
		// in flight, resumes here.
	default:
		return nil, &StateTransitionError{SessionID: sessionID, State: session.State, Operation: "present next question"}
	}

	assessments, err := m.assessments.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load assessments for session %d: %w", sessionID, err)
	}

	if len(assessments) == 0 {
		assessments, err = m.generateAssessments(ctx, session)
		if err != nil {
			return nil, err
		}
	}

	// A crash can land between storing an evaluation and advancing the
	// session row. Questions that already carry a result are behind us, not
	// current; skip them, and if nothing is left only the terminal
	// transition is missing.
	answeredAt := session.StartedAt
	for session.QuestionIndex < len(assessments) && assessments[session.QuestionIndex].Answered() {
		if at := assessments[session.QuestionIndex].AnsweredAt; at != nil {
			answeredAt = *at
		}
		session.QuestionIndex++
	}
	if session.QuestionIndex >= session.QuestionCount {
		if _, err := m.complete(ctx, session, assessments, answeredAt); err != nil {
			return nil, err
		}
		return nil, ErrSessionFinished
	}

	if session.QuestionIndex >= len(assessments) {
		return nil, &NotFoundError{Entity: "assessment", ID: int64(session.QuestionIndex)}
	}
	current := assessments[session.QuestionIndex]

	session.State = SessionStateAwaitingAnswer
	if err := m.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session %d: %w", sessionID, err)
	}

	return &current, nil
}

func (m *Manager) generateAssessments(ctx context.Context, session *StudySession) ([]Assessment, error) {
	topic, err := m.topics.GetByID(ctx, session.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic %d: %w", session.TopicID, err)
	}

	response, err := m.inference.GenerateQuestions(ctx, inference.GenerateQuestionsRequest{
		TopicTitle:   topic.Title,
		TopicContent: topic.Content,
		Count:        session.QuestionCount,
	})
	if err != nil {
		collabErr := &CollaboratorError{Operation: "question generation", Err: err}
		if cancelErr := m.cancel(ctx, session, CancelReasonGenerationFailed); cancelErr != nil {
			slog.Default().Error("Failed to cancel session after generation failure",
				"sessionID", session.ID, "error", cancelErr)
		}
		return nil, collabErr
	}

	questions := response.Questions
	if len(questions) == 0 {
		collabErr := &CollaboratorError{Operation: "question generation", Err: fmt.Errorf("no questions returned")}
		if cancelErr := m.cancel(ctx, session, CancelReasonGenerationFailed); cancelErr != nil {
			slog.Default().Error("Failed to cancel session after generation failure",
				"sessionID", session.ID, "error", cancelErr)
		}
		return nil, collabErr
	}
	if len(questions) > session.QuestionCount {
		questions = questions[:session.QuestionCount]
	}
	if len(questions) < session.QuestionCount {
		// The session target follows what the generator could produce, so
		// completion still requires exactly one assessment per question.
		session.QuestionCount = len(questions)
	}

	assessments := make([]*Assessment, 0, len(questions))
	for i, q := range questions {
		assessments = append(assessments, &Assessment{
			SessionID:       session.ID,
			Position:        i,
			Question:        q.Question,
			ReferenceAnswer: q.Answer,
		})
	}
	if err := m.assessments.CreateBatch(ctx, assessments); err != nil {
		return nil, fmt.Errorf("store assessments for session %d: %w", session.ID, err)
	}

	result := make([]Assessment, 0, len(assessments))
	for _, a := range assessments {
		result = append(result, *a)
	}
	return result, nil
}

// AnswerResult is the outcome of submitting one answer.
type AnswerResult struct {
	Assessment   Assessment
	Completed    bool
	SessionScore float64 // mean of per-assessment scores; set when Completed
}

// SubmitAnswer records the user's answer for the current question, has the
// evaluation collaborator grade it, and advances the session: to the next
// question, or to completed when this was the last one. Completion computes
// the session's mean score and applies the ledger update in the same
// transaction as the terminal state change.
func (m *Manager) SubmitAnswer(ctx context.Context, sessionID int64, text string) (*AnswerResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Reason: "answer must not be empty"}
	}
	if len(text) > MaxAnswerLength {
		return nil, &ValidationError{Reason: fmt.Sprintf("answer exceeds %d characters", MaxAnswerLength)}
	}

	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != SessionStateAwaitingAnswer {
		return nil, &StateTransitionError{SessionID: sessionID, State: session.State, Operation: "submit answer"}
	}

	assessments, err := m.assessments.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load assessments for session %d: %w", sessionID, err)
	}
	if session.QuestionIndex >= len(assessments) {
		return nil, &NotFoundError{Entity: "assessment", ID: int64(session.QuestionIndex)}
	}
	current := assessments[session.QuestionIndex]

	session.State = SessionStateEvaluating
	if err := m.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session %d: %w", sessionID, err)
	}

	topic, err := m.topics.GetByID(ctx, session.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic %d: %w", session.TopicID, err)
	}

	evaluation, err := m.inference.EvaluateAnswer(ctx, inference.EvaluateAnswerRequest{
		Question:        current.Question,
		UserAnswer:      text,
		ReferenceAnswer: current.ReferenceAnswer,
		TopicContent:    topic.Content,
	})
	if err != nil {
		collabErr := &CollaboratorError{Operation: "answer evaluation", Err: err}
		if cancelErr := m.cancel(ctx, session, CancelReasonEvaluationFailed); cancelErr != nil {
			slog.Default().Error("Failed to cancel session after evaluation failure",
				"sessionID", sessionID, "error", cancelErr)
		}
		return nil, collabErr
	}

	score := clampScore(evaluation.Score)
	answeredAt := m.now()
	if err := m.assessments.Finalize(ctx, current.ID, text, evaluation.Correct, score, evaluation.Feedback, answeredAt); err != nil {
		return nil, fmt.Errorf("finalize assessment %d: %w", current.ID, err)
	}

	current.UserAnswer = &text
	current.IsCorrect = &evaluation.Correct
	current.Score = &score
	current.Feedback = &evaluation.Feedback
	current.AnsweredAt = &answeredAt
	assessments[session.QuestionIndex] = current

	if session.QuestionIndex+1 < session.QuestionCount {
		session.QuestionIndex++
		session.State = SessionStatePresenting
		if err := m.sessions.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("update session %d: %w", sessionID, err)
		}
		return &AnswerResult{Assessment: current}, nil
	}

	sessionScore, err := m.complete(ctx, session, assessments, answeredAt)
	if err != nil {
		return nil, err
	}
	return &AnswerResult{Assessment: current, Completed: true, SessionScore: sessionScore}, nil
}

func (m *Manager) complete(ctx context.Context, session *StudySession, assessments []Assessment, answeredAt time.Time) (float64, error) {
	var total float64
	var answered, correct int
	for _, a := range assessments {
		if !a.Answered() {
			continue
		}
		total += *a.Score
		answered++
		if a.IsCorrect != nil && *a.IsCorrect {
			correct++
		}
	}

	var sessionScore float64
	if answered > 0 {
		sessionScore = total / float64(answered)
	}

	completedAt := m.now()
	session.State = SessionStateCompleted
	session.CompletedAt = &completedAt

	mutate := m.ledger.OutcomeMutation(sessionScore, answered, correct, answeredAt)
	if _, err := m.sessions.CompleteWithOutcome(ctx, session, mutate); err != nil {
		return 0, fmt.Errorf("complete session %d: %w", session.ID, err)
	}

	slog.Default().Info("Completed study session",
		"sessionID", session.ID,
		"userID", session.UserID,
		"topicID", session.TopicID,
		"score", sessionScore)

	return sessionScore, nil
}

// CancelSession cancels a non-terminal session. User-initiated and
// system-initiated cancellation take the same transition.
func (m *Manager) CancelSession(ctx context.Context, sessionID int64, reason CancelReason) error {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	return m.cancel(ctx, session, reason)
}

func (m *Manager) cancel(ctx context.Context, session *StudySession, reason CancelReason) error {
	if session.State.Terminal() {
		return &StateTransitionError{SessionID: session.ID, State: session.State, Operation: "cancel"}
	}

	session.State = SessionStateCancelled
	session.CancelReason = reason
	if err := m.sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("update session %d: %w", session.ID, err)
	}

	slog.Default().Info("Cancelled study session",
		"sessionID", session.ID,
		"userID", session.UserID,
		"reason", reason)
	return nil
}

// GetPerformanceSummary returns the user's per-topic statistics with resolved
// topic titles.
func (m *Manager) GetPerformanceSummary(ctx context.Context, userID int64) ([]TopicPerformance, error) {
	records, err := m.ledger.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	topics, err := m.topics.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load topics for user %d: %w", userID, err)
	}
	titles := make(map[int64]string, len(topics))
	for _, topic := range topics {
		titles[topic.ID] = topic.Title
	}

	summary := make([]TopicPerformance, 0, len(records))
	for _, r := range records {
		summary = append(summary, TopicPerformance{
			TopicID:        r.TopicID,
			TopicTitle:     titles[r.TopicID],
			TotalSessions:  r.TotalSessions,
			TotalCorrect:   r.TotalCorrect,
			TotalQuestions: r.TotalQuestions,
			AverageScore:   r.AverageScore,
			RetentionScore: r.RetentionScore,
			LastStudiedAt:  r.LastStudiedAt,
			NextDueAt:      r.NextDueAt,
			IntervalDays:   r.IntervalDays,
		})
	}
	return summary, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
