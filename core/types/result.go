package types

import (
	"sync"
)

// How a turn reached its final answer.
const (
	// FinishReasonAnswered means the model produced a final message
	// with no pending tool calls and the turn was saved.
	FinishReasonAnswered = "answered"
	// FinishReasonRecalled means a sufficiently similar question was
	// found in the answer store and the model was never invoked.
	FinishReasonRecalled = "recalled"
	// FinishReasonBudget means the tool loop hit its iteration cap and
	// the model was forced to answer without tools.
	FinishReasonBudget = "budget"
)

// JobResult is the result of a job
type JobResult struct {
	sync.Mutex
	State        []ActionState
	Conversation Messages

	Response     string
	FinishReason string
	Error        error
}

// NewJobResult creates a new job result
func NewJobResult() *JobResult {
	return &JobResult{}
}

// SetResult appends one executed action to the trace
func (j *JobResult) SetResult(state ActionState) {
	j.Lock()
	defer j.Unlock()

	j.State = append(j.State, state)
}

func (j *JobResult) SetResponse(response string) {
	j.Lock()
	defer j.Unlock()

	j.Response = response
}

// Finish marks the job as done. Turns run synchronously, so this only
// records the terminal error (if any); there is nothing to wake up.
func (j *JobResult) Finish(e error) {
	j.Lock()
	defer j.Unlock()

	j.Error = e
}
