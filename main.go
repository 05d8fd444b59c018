package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mudler/xlog"
	"github.com/sageloop/sage/core/agent"
	"github.com/sageloop/sage/core/memory"
	"github.com/sageloop/sage/core/types"
	"github.com/sageloop/sage/pkg/llm"
	"github.com/sageloop/sage/services"
)

var model = os.Getenv("SAGE_MODEL")
var apiURL = os.Getenv("SAGE_LLM_API_URL")
var apiKey = os.Getenv("SAGE_LLM_API_KEY")
var timeout = os.Getenv("SAGE_TIMEOUT")
var stateDir = os.Getenv("SAGE_STATE_DIR")
var systemPromptFile = os.Getenv("SAGE_SYSTEM_PROMPT_FILE")
var conversationsDir = os.Getenv("SAGE_CONVERSATIONS_DIR")

func init() {
	if model == "" {
		panic("SAGE_MODEL not set")
	}
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	if timeout == "" {
		timeout = "5m"
	}
	if stateDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		stateDir = cwd
	}
}

func main() {
	// make sure state dir exists
	os.MkdirAll(stateDir, 0755)

	client := llm.NewClient(apiKey, apiURL, timeout)

	store, err := memory.NewStore(filepath.Join(stateDir, "memory.json"))
	if err != nil {
		panic(err)
	}

	opts := []agent.Option{
		agent.WithModel(model),
		agent.WithLLMClient(client),
		agent.WithTimeout(timeout),
		agent.WithAnswerStore(store),
		agent.WithActions(services.Available(client, nil)...),
	}
	if systemPromptFile != "" {
		prompt, err := os.ReadFile(systemPromptFile)
		if err != nil {
			panic(err)
		}
		opts = append(opts, agent.WithSystemPrompt(string(prompt)))
	}
	if conversationsDir != "" {
		opts = append(opts, agent.WithConversationLogDir(conversationsDir))
	}

	a, err := agent.New(opts...)
	if err != nil {
		panic(err)
	}
	defer a.Stop()

	fmt.Println("Chatbot started. Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.ToLower(line) == "exit" {
			fmt.Println("Bot: See you soon!")
			break
		}

		result := a.Ask(types.WithText(line))
		if result.Error != nil {
			xlog.Error("Turn failed", "error", result.Error)
			fmt.Printf("Bot: something went wrong: %v\n", result.Error)
			continue
		}
		fmt.Printf("Bot: %s\n", result.Response)
	}

	if err := scanner.Err(); err != nil {
		xlog.Error("Reading input failed", "error", err)
	}
}
