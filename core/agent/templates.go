package agent

import (
	"bytes"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/sageloop/sage/core/types"
)

func templateBase(templateName, templatetext string) (*template.Template, error) {
	return template.New(templateName).Funcs(sprig.FuncMap()).Parse(templatetext)
}

func templateExecute(template *template.Template, data interface{}) (string, error) {
	prompt := bytes.NewBuffer([]byte{})
	err := template.Execute(prompt, data)
	if err != nil {
		return "", err
	}
	return prompt.String(), nil
}

// renderSystemPrompt fills the system prompt template with the action
// table and the current time. It runs once per turn.
func renderSystemPrompt(templ string, actions types.Actions) (string, error) {
	promptTemplate, err := templateBase("systemPrompt", templ)
	if err != nil {
		return "", err
	}

	return templateExecute(promptTemplate, struct {
		Actions []types.ActionDefinition
		Time    string
	}{
		Actions: actions.Definitions(),
		Time:    time.Now().UTC().Format(time.RFC1123),
	})
}

const defaultSystemPromptTemplate = `You are a helpful assistant answering questions with the help of a set of tools.
Use a tool whenever the question calls for computation, searching, or reading external content. Answer directly when no tool is needed.
Report tool failures honestly instead of inventing results, and keep final answers short and factual.

You can use the following tools:

{{ range .Actions -}}
- {{.Name}}: {{.Description}}
{{ end }}
Current time: {{.Time}}`
