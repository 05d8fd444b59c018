package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/pkg/xstrings"
	"github.com/sashabaranov/go-openai/jsonschema"
	"jaytaylor.com/html2text"
)

const (
	wikipediaAPI = "https://en.wikipedia.org/w/api.php"

	wikipediaMaxChars = 4000
)

func NewWikiSearch(config map[string]string) *WikiSearchAction {
	results := config["results"]
	intResult := 2

	if results != "" {
		_, err := fmt.Sscanf(results, "%d", &intResult)
		if err != nil {
			fmt.Printf("error: %v", err)
		}
	}

	baseURL := config["base_url"]
	if baseURL == "" {
		baseURL = wikipediaAPI
	}

	return &WikiSearchAction{
		results: intResult,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type WikiSearchAction struct {
	results int
	baseURL string
	client  *http.Client
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title  string `json:"title"`
			PageID int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

type wikiExtractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
		} `json:"pages"`
	} `json:"query"`
}

func (a *WikiSearchAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	result := struct {
		Query string `json:"query"`
	}{}
	err := params.Unmarshal(&result)
	if err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}

	titles, err := a.searchTitles(ctx, result.Query)
	if err != nil {
		return types.ActionResult{}, err
	}

	documents := []string{}
	for _, title := range titles {
		content, source, err := a.pageContent(ctx, title)
		if err != nil {
			return types.ActionResult{}, err
		}
		documents = append(documents, formatDocument(source, "", content))
	}
	formatted := strings.Join(documents, documentSeparator)

	return types.ActionResult{
		Result:  formatted,
		Payload: map[string]interface{}{"wiki_results": formatted},
	}, nil
}

// searchTitles resolves the query to the titles of the best-ranked
// pages, capped at the configured result count.
func (a *WikiSearchAction) searchTitles(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", fmt.Sprintf("%d", a.results))
	params.Set("format", "json")

	var response wikiSearchResponse
	if err := a.get(ctx, params, &response); err != nil {
		return nil, err
	}

	titles := []string{}
	for _, s := range response.Query.Search {
		titles = append(titles, s.Title)
	}
	return titles, nil
}

// pageContent fetches one page's extract as HTML and renders it to
// plain text. The canonical page URL doubles as the document source.
func (a *WikiSearchAction) pageContent(ctx context.Context, title string) (string, string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts|info")
	params.Set("inprop", "url")
	params.Set("titles", title)
	params.Set("redirects", "1")
	params.Set("format", "json")

	var response wikiExtractResponse
	if err := a.get(ctx, params, &response); err != nil {
		return "", "", err
	}

	// The pages object is keyed by page ID and holds exactly the one
	// title we asked for.
	keys := make([]string, 0, len(response.Query.Pages))
	for k := range response.Query.Pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		page := response.Query.Pages[k]
		rendered, err := html2text.FromString(page.Extract, html2text.Options{
			PrettyTables: true,
		})
		if err != nil {
			return "", "", err
		}
		return xstrings.TruncateChars(rendered, wikipediaMaxChars), page.FullURL, nil
	}
	return "", "", fmt.Errorf("no page content for %q", title)
}

func (a *WikiSearchAction) get(ctx context.Context, params url.Values, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("wikipedia returned error %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

func (a *WikiSearchAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "wiki_search",
		Description: "Search Wikipedia for a query and return maximum 2 results.",
		Properties: map[string]jsonschema.Definition{
			"query": {
				Type:        jsonschema.String,
				Description: "The search query.",
			},
		},
		Required: []string{"query"},
	}
}

func (a *WikiSearchAction) Capability() types.Capability {
	return types.CapabilitySearch
}
