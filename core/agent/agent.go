package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/mudler/xlog"
	"github.com/sageloop/sage/core/memory"
	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/pkg/llm"
	"github.com/sashabaranov/go-openai"
)

type (
	Action             = types.Action
	Actions            = types.Actions
	ActionState        = types.ActionState
	ActionCurrentState = types.ActionCurrentState
	Messages           = types.Messages
)

// Agent answers one question at a time. Every turn walks the same
// path: consult the answer store, loop between the model and the
// tools until the model stops asking for them, save the finished
// interaction, return. Concurrent callers serialize on the agent lock.
type Agent struct {
	sync.Mutex
	options *options
	client  llm.LLMClient
	store   *memory.Store

	context context.Context
	cancel  context.CancelFunc
}

func New(opts ...Option) (*Agent, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating agent options: %w", err)
	}

	if options.LLMAPI.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	client := options.client
	if client == nil {
		client = llm.NewClient(options.LLMAPI.APIKey, options.LLMAPI.APIURL, options.timeout)
	}

	ctx := options.context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Agent{
		options: options,
		client:  client,
		store:   options.store,
		context: ctx,
		cancel:  cancel,
	}, nil
}

// AvailableActions returns the actions the agent offers to the model.
func (a *Agent) AvailableActions() Actions {
	return a.options.userActions
}

// Stop cancels the agent context. An in-flight turn aborts at its next
// model or tool call.
func (a *Agent) Stop() {
	a.cancel()
}

// Ask runs one full question/answer turn and returns its result. The
// job context defaults to the agent's own, so Stop cancels turns that
// are still running; callers can override it per job.
func (a *Agent) Ask(opts ...types.JobOption) *types.JobResult {
	a.Lock()
	defer a.Unlock()

	job := types.NewJob(append([]types.JobOption{
		types.WithContext(a.context),
		types.WithReasoningCallback(a.options.reasoningCallback),
		types.WithResultCallback(a.options.resultCallback),
	}, opts...)...)
	defer job.Cancel()

	a.run(job)
	return job.Result
}

func (a *Agent) run(job *types.Job) {
	result := job.Result
	conv := Messages(job.ConversationHistory)

	xlog.Debug("Turn started", "uuid", job.UUID)

	prompt, err := renderSystemPrompt(a.systemPromptTemplate(), a.options.userActions)
	if err != nil {
		result.Finish(fmt.Errorf("rendering system prompt: %w", err))
		return
	}

	// A close-enough past question ends the turn before the model is
	// ever involved.
	if recalled, ok := a.recall(prompt, conv); ok {
		result.Conversation = recalled
		result.SetResponse(recalled[len(recalled)-1].Content)
		result.FinishReason = types.FinishReasonRecalled
		result.Finish(nil)
		a.saveConversation(job, recalled)
		return
	}

	conversation := append(Messages{{
		Role:    types.SystemRole,
		Content: prompt,
	}}, conv...)
	tools := a.options.userActions.ToTools()

	for iterations := 0; ; iterations++ {
		if iterations >= a.options.maxIterations {
			// Out of budget: one last call without tools forces the
			// model to answer with what it has.
			xlog.Warn("Tool budget exhausted, forcing a final answer", "uuid", job.UUID, "iterations", iterations)
			msg, err := a.decision(job, conversation, nil, a.options.maxRetries)
			if err != nil {
				result.Finish(fmt.Errorf("forcing a final answer: %w", err))
				return
			}
			conversation = append(conversation, msg)
			result.FinishReason = types.FinishReasonBudget
			break
		}

		msg, err := a.decision(job, conversation, tools, a.options.maxRetries)
		if err != nil {
			result.Finish(fmt.Errorf("model call failed: %w", err))
			return
		}
		conversation = append(conversation, msg)

		if len(msg.ToolCalls) == 0 {
			result.FinishReason = types.FinishReasonAnswered
			break
		}

		conversation = append(conversation, a.callTools(job, conversation)...)
	}

	answer := conversation[len(conversation)-1].Content
	a.remember(conversation, answer)

	xlog.Debug("Turn finished", "uuid", job.UUID, "conversation", conversation.String())

	result.Conversation = conversation
	result.SetResponse(answer)
	result.Finish(nil)
	a.saveConversation(job, conversation)
}

// decision asks the model for its next move: either a plain answer or
// a batch of tool calls. Transient API failures are retried up to
// maxRetries before the turn gives up.
func (a *Agent) decision(job *types.Job, conversation Messages, tools []openai.Tool, maxRetries int) (openai.ChatCompletionMessage, error) {
	request := openai.ChatCompletionRequest{
		Model:    a.options.LLMAPI.Model,
		Messages: conversation.ToOpenAI(),
		Tools:    tools,
	}

	var lastErr error
	for attempts := 0; attempts < maxRetries; attempts++ {
		resp, err := a.client.CreateChatCompletion(job.GetContext(), request)
		if err != nil {
			if ctxErr := job.GetContext().Err(); ctxErr != nil {
				return openai.ChatCompletionMessage{}, ctxErr
			}
			lastErr = err
			xlog.Warn("Attempt to get a model decision failed", "attempt", attempts+1, "error", err)
			continue
		}

		if len(resp.Choices) != 1 {
			lastErr = fmt.Errorf("no choices: %d", len(resp.Choices))
			xlog.Warn("Attempt to get a model decision failed", "attempt", attempts+1, "error", lastErr)
			continue
		}

		msg := resp.Choices[0].Message
		xlog.Debug("Model decision", "content", msg.Content, "toolCalls", len(msg.ToolCalls))
		return msg, nil
	}

	return openai.ChatCompletionMessage{}, lastErr
}

func (a *Agent) systemPromptTemplate() string {
	if a.options.systemPrompt != "" {
		return a.options.systemPrompt
	}
	return defaultSystemPromptTemplate
}
