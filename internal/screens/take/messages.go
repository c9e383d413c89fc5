package take

import (
	"github.com/abhisek/quizpool/internal/attempt"
	"github.com/abhisek/quizpool/internal/session"
)

// attemptLoadedMsg is sent when the draw and its prior responses are loaded.
type attemptLoadedMsg struct {
	Attempt *attempt.Attempt
	Err     error
}

// responseSavedMsg is sent once a submission is graded and persisted.
type responseSavedMsg struct {
	Response attempt.Response
	Err      error
}

// finishedMsg is sent when the attempt has been scored.
type finishedMsg struct {
	Outcome *session.Outcome
	Err     error
}
