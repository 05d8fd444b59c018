package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mudler/xlog"
	"github.com/sageloop/sage/core/types"
	"github.com/sashabaranov/go-openai"
)

// callTools runs every tool call requested by the latest assistant
// message and returns one tool message per call, in call order. When
// the latest message is not an assistant message carrying tool calls
// there is nothing to execute and no messages come back.
//
// A failing call never takes the batch down with it: unknown tool
// names, errors and panics all become the text of that call's tool
// message, and the other calls run regardless.
func (a *Agent) callTools(job *types.Job, conversation Messages) Messages {
	if !conversation.IsLastMessageFromRole(types.AssistantRole) {
		return Messages{}
	}
	last := conversation[len(conversation)-1]
	if len(last.ToolCalls) == 0 {
		return Messages{}
	}

	messages := make(Messages, len(last.ToolCalls))
	states := make([]ActionState, len(last.ToolCalls))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.options.parallelToolCalls)

	for i, call := range last.ToolCalls {
		action := a.options.userActions.Find(call.Function.Name)

		params := types.ActionParams{}
		var parseErr error
		if action != nil {
			parseErr = params.Read(call.Function.Arguments)
		}

		if action != nil && parseErr == nil {
			if !job.Callback(ActionCurrentState{Job: job, Action: action, Params: params}) {
				messages[i], states[i] = a.refusedToolCall(job, call, action, params)
				continue
			}
		}

		wg.Add(1)
		// Acquiring here, not in the goroutine, keeps the batch
		// executing in call order whenever the pool width is one.
		sem <- struct{}{}
		go func(i int, call openai.ToolCall, action Action, params types.ActionParams, parseErr error) {
			defer wg.Done()
			defer func() { <-sem }()
			messages[i], states[i] = a.executeToolCall(job, call, action, params, parseErr)
		}(i, call, action, params, parseErr)
	}
	wg.Wait()

	for _, state := range states {
		job.Result.SetResult(state)
		job.CallbackWithResult(state)
	}

	return messages
}

// executeToolCall resolves one call to its tool message. The result
// placed in the message is, in order of precedence: the not-found
// notice, the argument or execution failure text, the action's payload.
func (a *Agent) executeToolCall(job *types.Job, call openai.ToolCall, action Action, params types.ActionParams, parseErr error) (openai.ChatCompletionMessage, ActionState) {
	var result types.ActionResult

	switch {
	case action == nil:
		result = types.ActionResult{Result: fmt.Sprintf("Tool %s not found.", call.Function.Name)}
		xlog.Warn("Model called a tool that is not registered", "tool", call.Function.Name)
	case parseErr != nil:
		result = types.ActionResult{Result: parseErr.Error()}
		xlog.Warn("Tool called with undecodable arguments", "tool", call.Function.Name, "error", parseErr)
	default:
		ctx, cancel := context.WithTimeout(job.GetContext(), a.options.toolTimeout)
		res, err := runAction(ctx, action, params)
		cancel()
		if err != nil {
			result = types.ActionResult{Result: err.Error()}
			xlog.Warn("Tool failed", "tool", call.Function.Name, "error", err)
		} else {
			result = res
		}
	}

	message := openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    marshalToolContent(result),
		Name:       call.Function.Name,
		ToolCallID: call.ID,
	}

	state := ActionState{
		ActionCurrentState: ActionCurrentState{Job: job, Action: action, Params: params},
		ActionResult:       result,
	}
	return message, state
}

func (a *Agent) refusedToolCall(job *types.Job, call openai.ToolCall, action Action, params types.ActionParams) (openai.ChatCompletionMessage, ActionState) {
	result := types.ActionResult{Result: "stopped by callback"}

	message := openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    marshalToolContent(result),
		Name:       call.Function.Name,
		ToolCallID: call.ID,
	}
	state := ActionState{
		ActionCurrentState: ActionCurrentState{Job: job, Action: action, Params: params},
		ActionResult:       result,
	}
	return message, state
}

// runAction shields the turn from the action: a panic inside Run comes
// back as an ordinary error.
func runAction(ctx context.Context, action Action, params types.ActionParams) (result types.ActionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return action.Run(ctx, params)
}

// marshalToolContent serializes what the model will read back for one
// call. The payload, when an action set one, is serialized as-is so
// numbers stay numbers and maps stay objects; otherwise the result
// text is serialized as a JSON string.
func marshalToolContent(result types.ActionResult) string {
	value := result.Payload
	if value == nil {
		value = result.Result
	}

	content, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(content)
}
