package actions

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mudler/xlog"
	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/pkg/xstrings"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	youtubeBase = "https://www.youtube.com"

	youtubeMaxChars = 15000

	transcriptTruncatedNotice = "\n\n[...NOTE: transcript truncated because it was too long...]"
)

func NewYoutubeTranscript(config map[string]string) *YoutubeTranscriptAction {
	baseURL := config["base_url"]
	if baseURL == "" {
		baseURL = youtubeBase
	}

	languages := []string{"tr", "en"}
	if config["languages"] != "" {
		languages = strings.Split(config["languages"], ",")
	}

	return &YoutubeTranscriptAction{
		baseURL:   baseURL,
		languages: languages,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type YoutubeTranscriptAction struct {
	baseURL   string
	languages []string
	client    *http.Client
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}

type timedText struct {
	XMLName xml.Name        `xml:"transcript"`
	Lines   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Value string `xml:",chardata"`
}

// Run resolves the video ID, downloads the first available transcript
// in the preferred languages and returns it as plain text. Failures
// come back as readable messages rather than errors.
func (a *YoutubeTranscriptAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	result := struct {
		VideoURL string `json:"video_url"`
	}{}
	err := params.Unmarshal(&result)
	if err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}

	videoID := VideoID(result.VideoURL)
	if videoID == "" {
		return types.ActionResult{Result: "ERROR: Invalid YouTube URL."}, nil
	}

	transcript, err := a.fetchTranscript(ctx, videoID)
	if err != nil {
		xlog.Warn("Could not fetch transcript", "video", videoID, "error", err)
		return types.ActionResult{
			Result: fmt.Sprintf("ERROR: Could not fetch a transcript for video %s: %v", videoID, err),
		}, nil
	}

	return types.ActionResult{
		Result: xstrings.TruncateWithNotice(transcript, youtubeMaxChars, transcriptTruncatedNotice),
	}, nil
}

// VideoID extracts the video ID from a YouTube URL. Both the short
// youtu.be form and the watch?v= form are understood. An empty string
// means the URL carries no recognizable ID.
func VideoID(videoURL string) string {
	if strings.Contains(videoURL, "youtu.be") {
		parts := strings.Split(videoURL, "/")
		return strings.Split(parts[len(parts)-1], "?")[0]
	}

	u, err := url.Parse(videoURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
}

func (a *YoutubeTranscriptAction) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	page, err := a.get(ctx, a.baseURL+"/watch?v="+videoID)
	if err != nil {
		return "", err
	}

	raw, ok := captionTracksJSON(string(page))
	if !ok {
		return "", fmt.Errorf("no caption tracks on the video page")
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		return "", fmt.Errorf("decoding caption tracks: %w", err)
	}

	track, ok := pickTrack(tracks, a.languages)
	if !ok {
		return "", fmt.Errorf("no transcript available in languages %s", strings.Join(a.languages, ", "))
	}

	body, err := a.get(ctx, track.BaseURL)
	if err != nil {
		return "", err
	}

	var transcript timedText
	if err := xml.Unmarshal(body, &transcript); err != nil {
		return "", fmt.Errorf("decoding transcript: %w", err)
	}

	parts := []string{}
	for _, line := range transcript.Lines {
		parts = append(parts, html.UnescapeString(line.Value))
	}
	return strings.Join(parts, " "), nil
}

func (a *YoutubeTranscriptAction) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("youtube returned error %d: %s", resp.StatusCode, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// captionTracksJSON cuts the caption track array out of the watch page
// markup. The page embeds it as JSON inside a script tag, so the end of
// the array has to be found by bracket matching, skipping brackets that
// appear inside quoted strings.
func captionTracksJSON(page string) (string, bool) {
	const marker = `"captionTracks":`
	start := strings.Index(page, marker)
	if start == -1 {
		return "", false
	}
	rest := page[start+len(marker):]

	open := strings.Index(rest, "[")
	if open == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(rest); i++ {
		c := rest[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return rest[open : i+1], true
			}
		}
	}
	return "", false
}

// pickTrack returns the first track matching the language preference
// order, trying exact codes first and regional variants second.
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, lang := range languages {
		for _, t := range tracks {
			if strings.HasPrefix(t.LanguageCode, lang+"-") {
				return t, true
			}
		}
	}
	return captionTrack{}, false
}

func (a *YoutubeTranscriptAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "get_youtube_transcript",
		Description: "Fetches the full text transcript of a YouTube video from its URL. The input must be a valid YouTube video URL. Returns the raw transcript text or an error message if it fails.",
		Properties: map[string]jsonschema.Definition{
			"video_url": {
				Type:        jsonschema.String,
				Description: "The YouTube video URL.",
			},
		},
		Required: []string{"video_url"},
	}
}

func (a *YoutubeTranscriptAction) Capability() types.Capability {
	return types.CapabilityTranscript
}
