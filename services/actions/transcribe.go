package actions

import (
	"context"
	"fmt"
	"os"

	"github.com/dhowden/tag"
	"github.com/mudler/xlog"
	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/pkg/llm"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

func NewTranscribeAudio(config map[string]string, client llm.LLMClient) *TranscribeAudioAction {
	model := config["model"]
	if model == "" {
		model = openai.Whisper1
	}
	return &TranscribeAudioAction{client: client, model: model}
}

type TranscribeAudioAction struct {
	client llm.LLMClient
	model  string
}

// Run sends the audio file through the transcription endpoint. File and
// endpoint failures come back as readable messages, not errors.
func (a *TranscribeAudioAction) Run(ctx context.Context, params types.ActionParams) (types.ActionResult, error) {
	result := struct {
		AudioFilePath string `json:"audio_file_path"`
	}{}
	err := params.Unmarshal(&result)
	if err != nil {
		return types.ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}

	f, err := os.Open(result.AudioFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return types.ActionResult{
				Result: fmt.Sprintf("ERROR: No file found at the given path: %s", result.AudioFilePath),
			}, nil
		}
		return types.ActionResult{
			Result: fmt.Sprintf("ERROR: A problem occurred while processing the audio file: %v", err),
		}, nil
	}
	defer f.Close()

	// Identify the container up front. Formats the prober does not know
	// (wav, webm) still go through, the endpoint has the final word.
	_, fileType, err := tag.Identify(f)
	if err != nil || fileType == tag.UnknownFileType {
		xlog.Debug("Audio container not identified, sending as-is", "path", result.AudioFilePath)
		fileType = tag.UnknownFileType
	}

	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.model,
		FilePath: result.AudioFilePath,
	})
	if err != nil {
		return types.ActionResult{
			Result: fmt.Sprintf("ERROR: A problem occurred while processing the audio file: %v", err),
		}, nil
	}

	return types.ActionResult{
		Result:   resp.Text,
		Metadata: map[string]interface{}{"file_type": string(fileType)},
	}, nil
}

func (a *TranscribeAudioAction) Definition() types.ActionDefinition {
	return types.ActionDefinition{
		Name:        "transcribe_audio",
		Description: "Transcribes an audio file to text using OpenAI's Whisper model. The input must be a valid path to an audio file (e.g., 'path/to/myaudio.mp3'). Returns the transcribed text as a string.",
		Properties: map[string]jsonschema.Definition{
			"audio_file_path": {
				Type:        jsonschema.String,
				Description: "The path to the audio file to transcribe.",
			},
		},
		Required: []string{"audio_file_path"},
	}
}

func (a *TranscribeAudioAction) Capability() types.Capability {
	return types.CapabilityTranscript
}
