package types

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

// Job is a request to the agent to answer one user turn. It carries
// the opening conversation, an identifier, and the callbacks used to
// observe tool execution while the turn runs.
type Job struct {
	Result              *JobResult
	ReasoningCallback   func(ActionCurrentState) bool
	ResultCallback      func(ActionState)
	ConversationHistory []openai.ChatCompletionMessage
	UUID                string
	Metadata            map[string]interface{}

	context context.Context
	cancel  context.CancelFunc
}

type JobOption func(*Job)

func WithConversationHistory(history []openai.ChatCompletionMessage) JobOption {
	return func(j *Job) {
		j.ConversationHistory = history
	}
}

func WithText(text string) JobOption {
	return func(j *Job) {
		j.ConversationHistory = append(j.ConversationHistory, openai.ChatCompletionMessage{
			Role:    UserRole,
			Content: text,
		})
	}
}

func WithReasoningCallback(f func(ActionCurrentState) bool) JobOption {
	return func(r *Job) {
		r.ReasoningCallback = f
	}
}

func WithResultCallback(f func(ActionState)) JobOption {
	return func(r *Job) {
		r.ResultCallback = f
	}
}

func WithMetadata(metadata map[string]interface{}) JobOption {
	return func(j *Job) {
		j.Metadata = metadata
	}
}

func WithUUID(uuid string) JobOption {
	return func(j *Job) {
		j.UUID = uuid
	}
}

func WithContext(ctx context.Context) JobOption {
	return func(j *Job) {
		j.context = ctx
	}
}

func (j *Job) Callback(stateResult ActionCurrentState) bool {
	if j.ReasoningCallback == nil {
		return true
	}
	return j.ReasoningCallback(stateResult)
}

func (j *Job) CallbackWithResult(stateResult ActionState) {
	if j.ResultCallback == nil {
		return
	}
	j.ResultCallback(stateResult)
}

func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) GetContext() context.Context {
	return j.context
}

func newUUID() string {
	u, err := uuid.NewRandom()
	if err != nil {
		log.Fatalf("failed to generate UUID: %v", err)
	}

	return u.String()
}

// NewJob creates a new job for one user turn.
func NewJob(opts ...JobOption) *Job {
	j := &Job{
		Result: NewJobResult(),
		UUID:   newUUID(),
	}
	for _, o := range opts {
		o(j)
	}

	var ctx context.Context
	if j.context == nil {
		ctx = context.Background()
	} else {
		ctx = j.context
	}

	context, cancel := context.WithCancel(ctx)
	j.context = context
	j.cancel = cancel
	return j
}
