package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mudler/xlog"
	"github.com/sageloop/sage/core/types"
)

// recall consults the answer store for a stored question close enough
// to the latest user message. On a hit the turn's conversation is
// replaced wholesale: the system prompt plus the stored answer as the
// assistant message.
func (a *Agent) recall(prompt string, conv Messages) (Messages, bool) {
	if a.store == nil {
		return nil, false
	}

	question := conv.GetLatestUserMessage()
	if question == nil {
		return nil, false
	}

	answer, ok := a.store.Lookup(question.Content)
	if !ok {
		return nil, false
	}

	xlog.Info("Answering from the store", "question", question.Content)
	return Messages{
		{Role: types.SystemRole, Content: prompt},
		{Role: types.AssistantRole, Content: answer},
	}, true
}

// remember writes the just-answered interaction back to the store,
// keyed by the latest user message in the finished conversation. Store
// failures are logged; the turn keeps its answer.
func (a *Agent) remember(conversation Messages, answer string) {
	if a.store == nil {
		return
	}

	question := ""
	if q := conversation.GetLatestUserMessage(); q != nil {
		question = q.Content
	}

	if err := a.store.Remember(question, answer); err != nil {
		xlog.Error("Could not save the interaction", "error", err)
	}
}

// saveConversation writes the turn's full conversation to the log
// directory, one JSON file per turn.
func (a *Agent) saveConversation(job *types.Job, conversation Messages) {
	if a.options.conversationsDir == "" {
		return
	}

	if err := os.MkdirAll(a.options.conversationsDir, 0755); err != nil {
		xlog.Error("Error creating conversations directory", "error", err)
		return
	}

	fileName := fmt.Sprintf("%s-%s.json", time.Now().Format("2006-01-02-15-04-05"), job.UUID)
	if err := conversation.Save(filepath.Join(a.options.conversationsDir, fileName)); err != nil {
		xlog.Error("Error saving conversation", "error", err)
	}
}
