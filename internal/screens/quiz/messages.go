package quiz

import (
	"time"

	quizctl "github.com/conceptclarity/clarity/internal/quiz"
)

// startedMsg is sent when a start or a fullscreen confirmation returns.
type startedMsg struct {
	Err error
}

// timerTickMsg is sent every second while an attempt runs.
type timerTickMsg time.Time

// submittedMsg is sent when a submit request returns. Review is set when
// the attempt still has unanswered questions.
type submittedMsg struct {
	Review  *quizctl.SubmitReview
	Outcome *quizctl.Outcome
	Err     error
}
