package actions

import (
	"context"
	"fmt"

	"github.com/sageloop/sage/core/types"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// operandParams is the argument shape shared by all arithmetic actions.
type operandParams struct {
	A int `json:"a"`
	B int `json:"b"`
}

func operandProperties() map[string]jsonschema.Definition {
	return map[string]jsonschema.Definition{
		"a": {
			Type:        jsonschema.Integer,
			Description: "first int",
		},
		"b": {
			Type:        jsonschema.Integer,
			Description: "second int",
		},
	}
}

func NewMultiply(config map[string]string) *MultiplyAction {
	return &MultiplyAction{}
}

type MultiplyAction struct{}

func (a *MultiplyAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	var req operandParams
	if err := params.Unmarshal(&req); err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}
	product := req.A * req.B
	return types.ActionResult{
		Result:  fmt.Sprintf("%d", product),
		Payload: product,
	}, nil
}

func (a *MultiplyAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "multiply",
		Description: "Multiply two numbers.",
		Properties:  operandProperties(),
		Required:    []string{"a", "b"},
	}
}

func (a *MultiplyAction) Capability() types.Capability {
	return types.CapabilityArithmetic
}

func NewAdd(config map[string]string) *AddAction {
	return &AddAction{}
}

type AddAction struct{}

func (a *AddAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	var req operandParams
	if err := params.Unmarshal(&req); err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}
	sum := req.A + req.B
	return types.ActionResult{
		Result:  fmt.Sprintf("%d", sum),
		Payload: sum,
	}, nil
}

func (a *AddAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "add",
		Description: "Add two numbers.",
		Properties:  operandProperties(),
		Required:    []string{"a", "b"},
	}
}

func (a *AddAction) Capability() types.Capability {
	return types.CapabilityArithmetic
}

func NewSubtract(config map[string]string) *SubtractAction {
	return &SubtractAction{}
}

type SubtractAction struct{}

func (a *SubtractAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	var req operandParams
	if err := params.Unmarshal(&req); err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}
	difference := req.A - req.B
	return types.ActionResult{
		Result:  fmt.Sprintf("%d", difference),
		Payload: difference,
	}, nil
}

func (a *SubtractAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "subtract",
		Description: "Subtract two numbers.",
		Properties:  operandProperties(),
		Required:    []string{"a", "b"},
	}
}

func (a *SubtractAction) Capability() types.Capability {
	return types.CapabilityArithmetic
}

func NewDivide(config map[string]string) *DivideAction {
	return &DivideAction{}
}

type DivideAction struct{}

func (a *DivideAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	var req operandParams
	if err := params.Unmarshal(&req); err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}
	if req.B == 0 {
		return types.ActionResult{}, fmt.Errorf("Cannot divide by zero.")
	}
	quotient := float64(req.A) / float64(req.B)
	return types.ActionResult{
		Result:  fmt.Sprintf("%g", quotient),
		Payload: quotient,
	}, nil
}

func (a *DivideAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "divide",
		Description: "Divide two numbers.",
		Properties:  operandProperties(),
		Required:    []string{"a", "b"},
	}
}

func (a *DivideAction) Capability() types.Capability {
	return types.CapabilityArithmetic
}

func NewModulus(config map[string]string) *ModulusAction {
	return &ModulusAction{}
}

type ModulusAction struct{}

func (a *ModulusAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	var req operandParams
	if err := params.Unmarshal(&req); err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}
	remainder := req.A % req.B
	return types.ActionResult{
		Result:  fmt.Sprintf("%d", remainder),
		Payload: remainder,
	}, nil
}

func (a *ModulusAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "modulus",
		Description: "Get the modulus of two numbers.",
		Properties:  operandProperties(),
		Required:    []string{"a", "b"},
	}
}

func (a *ModulusAction) Capability() types.Capability {
	return types.CapabilityArithmetic
}
