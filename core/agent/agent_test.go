package agent_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sageloop/sage/core/memory"
	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/pkg/llm"
	"github.com/sageloop/sage/services/actions"

	. "github.com/sageloop/sage/core/agent"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

var _ types.Action = &countingAction{}
var _ types.Action = &panicAction{}

// countingAction records how often the model reached a tool.
type countingAction struct {
	mu    sync.Mutex
	count int
}

func (c *countingAction) Run(ctx context.Context, p types.ActionParams) (types.ActionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return types.ActionResult{Result: "ok"}, nil
}

func (c *countingAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "probe",
		Description: "test probe",
		Properties:  map[string]jsonschema.Definition{},
		Required:    []string{},
	}
}

func (c *countingAction) Capability() types.Capability { return "test" }

func (c *countingAction) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

type panicAction struct{}

func (panicAction) Run(ctx context.Context, p types.ActionParams) (types.ActionResult, error) {
	panic("kaboom")
}

func (panicAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "explode",
		Description: "always panics",
		Properties:  map[string]jsonschema.Definition{},
		Required:    []string{},
	}
}

func (panicAction) Capability() types.Capability { return "test" }

// scriptedClient replays the given assistant messages one per call and
// fails when asked for more than it has.
func scriptedClient(calls *int32, responses ...openai.ChatCompletionMessage) *llm.MockClient {
	return &llm.MockClient{
		CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
			n := atomic.AddInt32(calls, 1)
			if int(n) > len(responses) {
				return openai.ChatCompletionResponse{}, fmt.Errorf("no scripted response for call %d", n)
			}
			return openai.ChatCompletionResponse{
				Choices: []openai.ChatCompletionChoice{{Message: responses[n-1]}},
			}, nil
		},
	}
}

func assistantText(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: content,
	}
}

func assistantToolCalls(calls ...openai.ToolCall) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:      openai.ChatMessageRoleAssistant,
		ToolCalls: calls,
	}
}

func toolCall(id, name, arguments string) openai.ToolCall {
	return openai.ToolCall{
		ID:   id,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

var _ = Describe("Agent", func() {
	var tmpDir string
	var store *memory.Store

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "agent_test_*")
		Expect(err).ToNot(HaveOccurred())
		store, err = memory.NewStore(filepath.Join(tmpDir, "memory.json"))
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("requires a model", func() {
		_, err := New(WithLLMClient(&llm.MockClient{}))
		Expect(err).To(HaveOccurred())
	})

	Context("answering without tools", func() {
		It("returns the model text and saves the interaction", func() {
			var calls int32
			client := scriptedClient(&calls, assistantText("Paris."))

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
				WithAnswerStore(store),
			)
			Expect(err).ToNot(HaveOccurred())

			res := a.Ask(types.WithText("What is the capital of France?"))
			Expect(res.Error).ToNot(HaveOccurred())
			Expect(res.Response).To(Equal("Paris."))
			Expect(res.FinishReason).To(Equal(types.FinishReasonAnswered))
			Expect(calls).To(Equal(int32(1)))

			Expect(res.Conversation).To(HaveLen(3))
			Expect(res.Conversation[0].Role).To(Equal("system"))
			Expect(res.Conversation[1].Role).To(Equal("user"))
			Expect(res.Conversation[2].Role).To(Equal("assistant"))

			Expect(store.Len()).To(Equal(1))
			entry := store.Entries()[0]
			Expect(entry.Question).To(Equal("What is the capital of France?"))
			Expect(entry.Answer).To(Equal("Paris."))
		})
	})

	Context("recalling stored answers", func() {
		It("answers from the store without touching model or tools", func() {
			Expect(store.Remember("What is 2 + 2?", "4")).To(Succeed())

			var calls int32
			client := scriptedClient(&calls)
			probe := &countingAction{}

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
				WithAnswerStore(store),
				WithActions(probe),
			)
			Expect(err).ToNot(HaveOccurred())

			res := a.Ask(types.WithText("what is 2 + 2?"))
			Expect(res.Error).ToNot(HaveOccurred())
			Expect(res.Response).To(Equal("4"))
			Expect(res.FinishReason).To(Equal(types.FinishReasonRecalled))

			Expect(calls).To(Equal(int32(0)))
			Expect(probe.calls()).To(Equal(0))

			Expect(res.Conversation).To(HaveLen(2))
			Expect(res.Conversation[0].Role).To(Equal("system"))
			Expect(res.Conversation[1].Role).To(Equal("assistant"))
			Expect(res.Conversation[1].Content).To(Equal("4"))
		})

		It("does not save the interaction again on a hit", func() {
			Expect(store.Remember("What is 2 + 2?", "4")).To(Succeed())

			var calls int32
			a, err := New(
				WithModel("test-model"),
				WithLLMClient(scriptedClient(&calls)),
				WithAnswerStore(store),
			)
			Expect(err).ToNot(HaveOccurred())

			_ = a.Ask(types.WithText("What is 2 + 2?"))
			Expect(store.Len()).To(Equal(1))
		})
	})

	Context("running tools", func() {
		It("feeds tool results back and answers", func() {
			var calls int32
			client := scriptedClient(&calls,
				assistantToolCalls(toolCall("call_1", "add", `{"a": 2, "b": 2}`)),
				assistantText("The answer is 4"),
			)

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
				WithAnswerStore(store),
				WithActions(actions.NewAdd(nil)),
			)
			Expect(err).ToNot(HaveOccurred())

			res := a.Ask(types.WithText("What is 2 plus 2?"))
			Expect(res.Error).ToNot(HaveOccurred())
			Expect(res.Response).To(Equal("The answer is 4"))
			Expect(res.FinishReason).To(Equal(types.FinishReasonAnswered))
			Expect(calls).To(Equal(int32(2)))

			// system, user, assistant tool calls, tool result, answer
			Expect(res.Conversation).To(HaveLen(5))
			toolMsg := res.Conversation[3]
			Expect(toolMsg.Role).To(Equal(openai.ChatMessageRoleTool))
			Expect(toolMsg.Name).To(Equal("add"))
			Expect(toolMsg.ToolCallID).To(Equal("call_1"))
			Expect(toolMsg.Content).To(Equal("4"))

			Expect(res.State).To(HaveLen(1))
			Expect(res.State[0].Result).To(Equal("4"))

			Expect(store.Len()).To(Equal(1))
			Expect(store.Entries()[0].Answer).To(Equal("The answer is 4"))
		})

		It("keeps a failing call from sinking its batch", func() {
			var calls int32
			client := scriptedClient(&calls,
				assistantToolCalls(
					toolCall("call_1", "add", `{"a": 2, "b": 3}`),
					toolCall("call_2", "frobnicate", `{}`),
					toolCall("call_3", "divide", `{"a": 5, "b": 0}`),
				),
				assistantText("done"),
			)

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
				WithActions(actions.NewAdd(nil), actions.NewDivide(nil)),
			)
			Expect(err).ToNot(HaveOccurred())

			res := a.Ask(types.WithText("mixed batch"))
			Expect(res.Error).ToNot(HaveOccurred())
			Expect(res.Response).To(Equal("done"))

			// One tool message per call, same order, same IDs.
			tools := res.Conversation[3:6]
			Expect(tools[0].ToolCallID).To(Equal("call_1"))
			Expect(tools[0].Content).To(Equal("5"))
			Expect(tools[1].ToolCallID).To(Equal("call_2"))
			Expect(tools[1].Content).To(Equal(`"Tool frobnicate not found."`))
			Expect(tools[2].ToolCallID).To(Equal("call_3"))
			Expect(tools[2].Content).To(Equal(`"Cannot divide by zero."`))

			Expect(res.State).To(HaveLen(3))
		})

		It("survives a panicking tool", func() {
			var calls int32
			client := scriptedClient(&calls,
				assistantToolCalls(toolCall("call_1", "explode", `{}`)),
				assistantText("survived"),
			)

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
				WithActions(panicAction{}),
			)
			Expect(err).ToNot(HaveOccurred())

			res := a.Ask(types.WithText("boom"))
			Expect(res.Error).ToNot(HaveOccurred())
			Expect(res.Response).To(Equal("survived"))

			toolMsg := res.Conversation[3]
			Expect(toolMsg.Content).To(ContainSubstring("tool panicked"))
			Expect(toolMsg.Content).To(ContainSubstring("kaboom"))
		})
	})

	Context("tool budget", func() {
		It("forces a final answer when the model keeps asking for tools", func() {
			var calls int32
			var lastRequestTools int32 = -1
			client := &llm.MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					atomic.AddInt32(&calls, 1)
					atomic.StoreInt32(&lastRequestTools, int32(len(req.Tools)))
					msg := assistantToolCalls(toolCall("call_x", "probe", `{}`))
					if len(req.Tools) == 0 {
						msg = assistantText("forced answer")
					}
					return openai.ChatCompletionResponse{
						Choices: []openai.ChatCompletionChoice{{Message: msg}},
					}, nil
				},
			}
			probe := &countingAction{}

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
				WithAnswerStore(store),
				WithActions(probe),
				WithMaxIterations(2),
			)
			Expect(err).ToNot(HaveOccurred())

			res := a.Ask(types.WithText("loop forever"))
			Expect(res.Error).ToNot(HaveOccurred())
			Expect(res.Response).To(Equal("forced answer"))
			Expect(res.FinishReason).To(Equal(types.FinishReasonBudget))

			// Two budgeted iterations plus the final toolless call.
			Expect(calls).To(Equal(int32(3)))
			Expect(lastRequestTools).To(Equal(int32(0)))
			Expect(probe.calls()).To(Equal(2))

			Expect(store.Len()).To(Equal(1))
			Expect(store.Entries()[0].Answer).To(Equal("forced answer"))
		})
	})

	Context("model failures", func() {
		It("retries transient failures within a turn", func() {
			var calls int32
			client := &llm.MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					if atomic.AddInt32(&calls, 1) == 1 {
						return openai.ChatCompletionResponse{}, fmt.Errorf("hiccup")
					}
					return openai.ChatCompletionResponse{
						Choices: []openai.ChatCompletionChoice{{Message: assistantText("recovered")}},
					}, nil
				},
			}

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
			)
			Expect(err).ToNot(HaveOccurred())

			res := a.Ask(types.WithText("hello"))
			Expect(res.Error).ToNot(HaveOccurred())
			Expect(res.Response).To(Equal("recovered"))
			Expect(calls).To(Equal(int32(2)))
		})

		It("fails the turn without saving when the model stays down", func() {
			client := &llm.MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					return openai.ChatCompletionResponse{}, fmt.Errorf("api down")
				},
			}

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
				WithAnswerStore(store),
				WithMaxRetries(2),
			)
			Expect(err).ToNot(HaveOccurred())

			res := a.Ask(types.WithText("hello"))
			Expect(res.Error).To(HaveOccurred())
			Expect(res.Error.Error()).To(ContainSubstring("api down"))
			Expect(res.Response).To(Equal(""))
			Expect(store.Len()).To(Equal(0))
		})
	})

	Context("end to end recall", func() {
		It("replays a computed answer for the same question", func() {
			var calls int32
			client := scriptedClient(&calls,
				assistantToolCalls(toolCall("call_1", "add", `{"a": 2, "b": 2}`)),
				assistantText("4"),
			)

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
				WithAnswerStore(store),
				WithActions(actions.NewAdd(nil)),
			)
			Expect(err).ToNot(HaveOccurred())

			first := a.Ask(types.WithText("What is 2 plus 2?"))
			Expect(first.Error).ToNot(HaveOccurred())
			Expect(first.Response).To(Equal("4"))
			Expect(first.FinishReason).To(Equal(types.FinishReasonAnswered))
			Expect(calls).To(Equal(int32(2)))

			second := a.Ask(types.WithText("What is 2 plus 2?"))
			Expect(second.Error).ToNot(HaveOccurred())
			Expect(second.Response).To(Equal("4"))
			Expect(second.FinishReason).To(Equal(types.FinishReasonRecalled))
			Expect(calls).To(Equal(int32(2)))
		})
	})

	Context("turn serialization", func() {
		It("runs one turn at a time", func() {
			var inFlight int32
			var maxInFlight int32
			client := &llm.MockClient{
				CreateChatCompletionFunc: func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
					n := atomic.AddInt32(&inFlight, 1)
					defer atomic.AddInt32(&inFlight, -1)
					for {
						max := atomic.LoadInt32(&maxInFlight)
						if n <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, n) {
							break
						}
					}
					time.Sleep(20 * time.Millisecond)
					return openai.ChatCompletionResponse{
						Choices: []openai.ChatCompletionChoice{{Message: assistantText("ok")}},
					}, nil
				},
			}

			a, err := New(
				WithModel("test-model"),
				WithLLMClient(client),
			)
			Expect(err).ToNot(HaveOccurred())

			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res := a.Ask(types.WithText("hello"))
					Expect(res.Error).ToNot(HaveOccurred())
				}()
			}
			wg.Wait()

			Expect(maxInFlight).To(Equal(int32(1)))
		})
	})

	Context("conversation logging", func() {
		It("writes one JSON file per finished turn", func() {
			logDir := filepath.Join(tmpDir, "conversations")

			var calls int32
			a, err := New(
				WithModel("test-model"),
				WithLLMClient(scriptedClient(&calls, assistantText("logged"))),
				WithConversationLogDir(logDir),
			)
			Expect(err).ToNot(HaveOccurred())

			res := a.Ask(types.WithText("hello"))
			Expect(res.Error).ToNot(HaveOccurred())

			files, err := filepath.Glob(filepath.Join(logDir, "*.json"))
			Expect(err).ToNot(HaveOccurred())
			Expect(files).To(HaveLen(1))
		})
	})
})

var _ = Describe("Agent against a live endpoint", func() {
	BeforeEach(func() {
		if !useRealLLM {
			Skip("SAGE_LLM_API_URL and SAGE_MODEL are not configured")
		}
	})

	It("answers an arithmetic question", func() {
		a, err := New(
			WithModel(testModel),
			WithLLMAPIURL(apiURL),
			WithLLMAPIKey(apiKey),
			WithTimeout(clientTimeout),
			WithActions(actions.NewAdd(nil), actions.NewMultiply(nil)),
		)
		Expect(err).ToNot(HaveOccurred())

		res := a.Ask(types.WithText("What is 2 + 2? Use the add tool."))
		Expect(res.Error).ToNot(HaveOccurred())
		Expect(res.Response).ToNot(BeEmpty())
	})
})
