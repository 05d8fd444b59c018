package agent

import (
	"context"
	"time"

	"github.com/sageloop/sage/core/memory"
	"github.com/sageloop/sage/pkg/llm"
)

type Option func(*options) error

type llmOptions struct {
	APIURL string
	APIKey string
	Model  string
}

type options struct {
	LLMAPI llmOptions

	client llm.LLMClient

	userActions Actions
	store       *memory.Store

	systemPrompt     string
	timeout          string
	conversationsDir string
	context          context.Context

	maxIterations     int
	maxRetries        int
	parallelToolCalls int
	toolTimeout       time.Duration

	// callbacks
	reasoningCallback func(ActionCurrentState) bool
	resultCallback    func(ActionState)
}

func defaultOptions() *options {
	return &options{
		LLMAPI: llmOptions{
			APIURL: "http://localhost:8080",
		},
		timeout:           "5m",
		maxIterations:     8,
		maxRetries:        3,
		parallelToolCalls: 1,
		toolTimeout:       60 * time.Second,
	}
}

func newOptions(opts ...Option) (*options, error) {
	options := defaultOptions()
	for _, o := range opts {
		if err := o(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// WithLLMClient injects a prebuilt client. Without it the agent dials
// the configured API URL itself.
func WithLLMClient(client llm.LLMClient) Option {
	return func(o *options) error {
		o.client = client
		return nil
	}
}

func WithLLMAPIURL(url string) Option {
	return func(o *options) error {
		o.LLMAPI.APIURL = url
		return nil
	}
}

func WithLLMAPIKey(key string) Option {
	return func(o *options) error {
		o.LLMAPI.APIKey = key
		return nil
	}
}

func WithModel(model string) Option {
	return func(o *options) error {
		o.LLMAPI.Model = model
		return nil
	}
}

func WithTimeout(timeout string) Option {
	return func(o *options) error {
		o.timeout = timeout
		return nil
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(o *options) error {
		o.systemPrompt = prompt
		return nil
	}
}

func WithActions(actions ...Action) Option {
	return func(o *options) error {
		o.userActions = actions
		return nil
	}
}

// WithAnswerStore attaches the store consulted before every model call
// and updated after every answered turn.
func WithAnswerStore(store *memory.Store) Option {
	return func(o *options) error {
		o.store = store
		return nil
	}
}

// WithMaxIterations bounds how many times one turn may loop back into
// tool execution before the agent forces a final answer.
func WithMaxIterations(n int) Option {
	return func(o *options) error {
		if n > 0 {
			o.maxIterations = n
		}
		return nil
	}
}

func WithMaxRetries(n int) Option {
	return func(o *options) error {
		if n > 0 {
			o.maxRetries = n
		}
		return nil
	}
}

// WithParallelToolCalls widens the tool execution pool. The default of
// one runs a batch strictly in order.
func WithParallelToolCalls(n int) Option {
	return func(o *options) error {
		if n > 0 {
			o.parallelToolCalls = n
		}
		return nil
	}
}

// WithToolTimeout bounds a single tool call. A call that overruns is
// reported as a failure in its slot, the rest of the batch is not
// affected.
func WithToolTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d > 0 {
			o.toolTimeout = d
		}
		return nil
	}
}

// WithConversationLogDir makes the agent write each finished turn's
// conversation to a JSON file in dir. Empty disables logging.
func WithConversationLogDir(dir string) Option {
	return func(o *options) error {
		o.conversationsDir = dir
		return nil
	}
}

func WithContext(ctx context.Context) Option {
	return func(o *options) error {
		o.context = ctx
		return nil
	}
}

func WithAgentReasoningCallback(cb func(ActionCurrentState) bool) Option {
	return func(o *options) error {
		o.reasoningCallback = cb
		return nil
	}
}

func WithAgentResultCallback(cb func(ActionState)) Option {
	return func(o *options) error {
		o.resultCallback = cb
		return nil
	}
}
