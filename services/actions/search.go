package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/pkg/xstrings"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/tmc/langchaingo/tools/duckduckgo"
	"mvdan.cc/xurls/v2"
)

const (
	MetadataUrls = "urls"

	searchUserAgent = "Sage"
)

func NewWebSearch(config map[string]string) *WebSearchAction {
	results := config["results"]
	intResult := 3

	// decode int from string
	if results != "" {
		_, err := fmt.Sscanf(results, "%d", &intResult)
		if err != nil {
			fmt.Printf("error: %v", err)
		}
	}

	return &WebSearchAction{results: intResult}
}

type WebSearchAction struct{ results int }

func (a *WebSearchAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	result := struct {
		Query string `json:"query"`
	}{}
	err := params.Unmarshal(&result)
	if err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}

	ddg, err := duckduckgo.New(a.results, searchUserAgent)
	if err != nil {
		return types.ActionResult{}, err
	}
	res, err := ddg.Call(ctx, result.Query)
	if err != nil {
		return types.ActionResult{}, err
	}

	rxStrict := xurls.Strict()

	documents := []string{}
	for _, block := range strings.Split(res, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if len(documents) == a.results {
			break
		}
		source := ""
		if u := rxStrict.FindString(block); u != "" {
			source = cleanSearchURL(u)
		}
		documents = append(documents, formatDocument(source, "", block))
	}
	formatted := strings.Join(documents, documentSeparator)

	urls := []string{}
	for _, u := range rxStrict.FindAllString(res, -1) {
		urls = append(urls, cleanSearchURL(u))
	}

	return types.ActionResult{
		Result:  formatted,
		Payload: map[string]interface{}{"web_results": formatted},
		Metadata: map[string]interface{}{
			MetadataUrls: xstrings.Unique(urls),
		},
	}, nil
}

// cleanSearchURL strips the result-page redirect wrapping so the bare
// destination address is what ends up in the trace.
func cleanSearchURL(u string) string {
	u = strings.ReplaceAll(u, "//duckduckgo.com/l/?uddg=", "")
	u = strings.Split(u, "&rut=")[0]
	return u
}

func (a *WebSearchAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "web_search",
		Description: "Search the web for a query and return maximum 3 results.",
		Properties: map[string]jsonschema.Definition{
			"query": {
				Type:        jsonschema.String,
				Description: "The search query.",
			},
		},
		Required: []string{"query"},
	}
}

func (a *WebSearchAction) Capability() types.Capability {
	return types.CapabilitySearch
}
