package types

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

const (
	SystemRole    = "system"
	UserRole      = "user"
	AssistantRole = "assistant"
)

// Messages is one conversation, ordered oldest to newest. The order is
// load-bearing: it is the literal input to the model.
type Messages []openai.ChatCompletionMessage

func (m Messages) ToOpenAI() []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage(m)
}

func (m Messages) String() string {
	s := ""
	for _, cc := range m {
		s += cc.Role + ": "

		if len(cc.ToolCalls) > 0 {
			s += "[Tool Calls] "
			for _, tc := range cc.ToolCalls {
				s += fmt.Sprintf("%s(%s) ", tc.Function.Name, tc.Function.Arguments)
			}
		}

		if cc.Role == openai.ChatMessageRoleTool {
			s += fmt.Sprintf("[Tool ID: %s] ", cc.ToolCallID)
		}

		s += cc.Content + "\n"
	}
	return s
}

func (m Messages) Save(path string) error {
	content, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer f.Close()

	if _, err := f.Write(content); err != nil {
		return err
	}

	return nil
}

// GetLatestUserMessage walks the conversation from the bottom up and
// returns the most recent user message, or nil if there is none.
func (m Messages) GetLatestUserMessage() *openai.ChatCompletionMessage {
	for i := len(m) - 1; i >= 0; i-- {
		msg := m[i]
		if msg.Role == UserRole {
			return &msg
		}
	}

	return nil
}

func (m Messages) IsLastMessageFromRole(role string) bool {
	if len(m) == 0 {
		return false
	}

	return m[len(m)-1].Role == role
}
