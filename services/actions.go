package services

import (
	"fmt"

	"github.com/mudler/xlog"
	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/pkg/llm"
	"github.com/sageloop/sage/services/actions"
)

const (
	// Actions
	ActionMultiply          = "multiply"
	ActionAdd               = "add"
	ActionSubtract          = "subtract"
	ActionDivide            = "divide"
	ActionModulus           = "modulus"
	ActionWikiSearch        = "wiki_search"
	ActionWebSearch         = "web_search"
	ActionArvixSearch       = "arvix_search"
	ActionYoutubeTranscript = "get_youtube_transcript"
	ActionTranscribeAudio   = "transcribe_audio"
)

var AvailableActions = []string{
	ActionMultiply,
	ActionAdd,
	ActionSubtract,
	ActionDivide,
	ActionModulus,
	ActionWikiSearch,
	ActionWebSearch,
	ActionArvixSearch,
	ActionYoutubeTranscript,
	ActionTranscribeAudio,
}

// Action builds one registered action by name. The config map carries
// per-action overrides and may be nil.
func Action(name string, config map[string]string, client llm.LLMClient) (types.Action, error) {
	var a types.Action

	switch name {
	case ActionMultiply:
		a = actions.NewMultiply(config)
	case ActionAdd:
		a = actions.NewAdd(config)
	case ActionSubtract:
		a = actions.NewSubtract(config)
	case ActionDivide:
		a = actions.NewDivide(config)
	case ActionModulus:
		a = actions.NewModulus(config)
	case ActionWikiSearch:
		a = actions.NewWikiSearch(config)
	case ActionWebSearch:
		a = actions.NewWebSearch(config)
	case ActionArvixSearch:
		a = actions.NewArvixSearch(config)
	case ActionYoutubeTranscript:
		a = actions.NewYoutubeTranscript(config)
	case ActionTranscribeAudio:
		a = actions.NewTranscribeAudio(config, client)
	default:
		return nil, fmt.Errorf("unknown action %q", name)
	}

	return a, nil
}

// Available builds the full registry. Actions that cannot be
// constructed are skipped with a log line rather than failing the rest.
func Available(client llm.LLMClient, configs map[string]map[string]string) types.Actions {
	allActions := types.Actions{}

	for _, name := range AvailableActions {
		a, err := Action(name, configs[name], client)
		if err != nil {
			xlog.Error("Error creating action", "action", name, "error", err)
			continue
		}
		allActions = append(allActions, a)
	}

	return allActions
}
