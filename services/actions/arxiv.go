package actions

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/pkg/xstrings"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	arxivAPI = "https://export.arxiv.org/api/query"

	// Per-document bound applied before the results reach the model.
	arxivMaxChars = 1000
)

func NewArvixSearch(config map[string]string) *ArvixSearchAction {
	results := config["results"]
	intResult := 3

	if results != "" {
		_, err := fmt.Sscanf(results, "%d", &intResult)
		if err != nil {
			fmt.Printf("error: %v", err)
		}
	}

	baseURL := config["base_url"]
	if baseURL == "" {
		baseURL = arxivAPI
	}

	return &ArvixSearchAction{
		results: intResult,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ArvixSearchAction queries the arXiv Atom feed. The action name keeps
// the established spelling clients already rely on.
type ArvixSearchAction struct {
	results int
	baseURL string
	client  *http.Client
}

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

func (a *ArvixSearchAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	result := struct {
		Query string `json:"query"`
	}{}
	err := params.Unmarshal(&result)
	if err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}

	feed, err := a.search(ctx, result.Query)
	if err != nil {
		return types.ActionResult{}, err
	}

	documents := []string{}
	for _, entry := range feed.Entries {
		documents = append(documents, formatDocument(entry.ID, "", xstrings.TruncateChars(entry.content(), arxivMaxChars)))
	}
	formatted := strings.Join(documents, documentSeparator)

	return types.ActionResult{
		Result:  formatted,
		Payload: map[string]interface{}{"arvix_results": formatted},
	}, nil
}

func (a *ArvixSearchAction) search(ctx context.Context, query string) (*arxivFeed, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", a.results))

	req, err := http.NewRequestWithContext(ctx, "GET", a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("arxiv returned error %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decoding arxiv feed: %w", err)
	}
	return &feed, nil
}

// content renders one entry: header fields first, abstract last.
func (e arxivEntry) content() string {
	names := []string{}
	for _, author := range e.Authors {
		names = append(names, author.Name)
	}
	return fmt.Sprintf("Published: %s\nTitle: %s\nAuthors: %s\nSummary: %s",
		e.Published,
		collapseWhitespace(e.Title),
		strings.Join(names, ", "),
		strings.TrimSpace(e.Summary))
}

// collapseWhitespace undoes the hard wrapping the feed applies to long
// titles.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (a *ArvixSearchAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "arvix_search",
		Description: "Search Arxiv for a query and return maximum 3 result.",
		Properties: map[string]jsonschema.Definition{
			"query": {
				Type:        jsonschema.String,
				Description: "The search query.",
			},
		},
		Required: []string{"query"},
	}
}

func (a *ArvixSearchAction) Capability() types.Capability {
	return types.CapabilitySearch
}
