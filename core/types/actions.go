package types

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Capability classifies what kind of work an action performs. The
// table of actions offered to the model is assembled from tagged
// actions at startup, and callers can select a subset by tag.
type Capability string

const (
	CapabilityArithmetic Capability = "arithmetic"
	CapabilitySearch     Capability = "search"
	CapabilityTranscript Capability = "transcript"
)

type ActionParams map[string]interface{}

func (ap ActionParams) Read(s string) error {
	err := json.Unmarshal([]byte(s), &ap)
	return err
}

func (ap ActionParams) String() string {
	b, _ := json.Marshal(ap)
	return string(b)
}

func (ap ActionParams) Unmarshal(v interface{}) error {
	b, err := json.Marshal(ap)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return err
	}
	return nil
}

// ActionResult is what an action hands back to the agent. Result is
// the human-readable form kept in the execution trace. Payload, when
// set, is the value serialized verbatim into the tool message for the
// model: a number for arithmetic, a one-key map for searches, a plain
// string for transcripts. When Payload is nil the Result string is
// serialized instead.
type ActionResult struct {
	Result   string
	Payload  interface{}
	Metadata map[string]interface{}
}

type ActionDefinition struct {
	Properties  map[string]jsonschema.Definition
	Required    []string
	Name        ActionDefinitionName
	Description string
}

type ActionDefinitionName string

func (a ActionDefinitionName) Is(name string) bool {
	return string(a) == name
}

func (a ActionDefinitionName) String() string {
	return string(a)
}

func (a ActionDefinition) ToFunctionDefinition() *openai.FunctionDefinition {
	return &openai.FunctionDefinition{
		Name:        a.Name.String(),
		Description: a.Description,
		Parameters: jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: a.Properties,
			Required:   a.Required,
		},
	}
}

// Action is something the agent can do
type Action interface {
	Run(ctx context.Context, params ActionParams) (ActionResult, error)
	Definition() ActionDefinition
	Capability() Capability
}

type Actions []Action

func (a Actions) ToTools() []openai.Tool {
	tools := []openai.Tool{}
	for _, action := range a {
		tools = append(tools, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: action.Definition().ToFunctionDefinition(),
		})
	}
	return tools
}

func (a Actions) Find(name string) Action {
	for _, action := range a {
		if action.Definition().Name.Is(name) {
			return action
		}
	}
	return nil
}

func (a Actions) WithCapability(c Capability) Actions {
	selected := Actions{}
	for _, action := range a {
		if action.Capability() == c {
			selected = append(selected, action)
		}
	}
	return selected
}

func (a Actions) Definitions() []ActionDefinition {
	definitions := []ActionDefinition{}
	for _, action := range a {
		definitions = append(definitions, action.Definition())
	}
	return definitions
}

type ActionState struct {
	ActionCurrentState
	ActionResult
}

type ActionCurrentState struct {
	Job    *Job
	Action Action
	Params ActionParams
}
