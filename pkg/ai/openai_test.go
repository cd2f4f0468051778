package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		var request openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Equal(t, "test-model", request.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-test",
			Model: request.Model,
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestGenerator(t *testing.T, baseURL string) *OpenAIGenerator {
	t.Helper()
	generator, err := NewOpenAIGenerator(OpenAIConfig{
		APIKey:  "sk-test",
		Model:   "test-model",
		BaseURL: baseURL,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return generator
}

func TestGenerateParsesValidReply(t *testing.T) {
	reply := `{"questions":[
		{"question":" How many primes are below 20? ","kind":"short-answer","correct_answer":"8","options":["ignored"]},
		{"question":"Pick the even prime","kind":"choice","options":["1","2","3"],"correct_answer":"2"}
	]}`
	server := newTestServer(t, reply)
	generator := newTestGenerator(t, server.URL)

	questions, err := generator.Generate(context.Background(), QuestionRequest{Topic: "primes", Grade: 6, Difficulty: "easy", Count: 2, Kind: "short-answer"})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, "How many primes are below 20?", questions[0].Question)
	require.Nil(t, questions[0].Options)
	require.Equal(t, []string{"1", "2", "3"}, questions[1].Options)
	require.Equal(t, "test-model", generator.Model())
}

func TestGenerateRejectsSchemaViolations(t *testing.T) {
	server := newTestServer(t, `{"questions":[{"question":"x","kind":"essay"}]}`)
	generator := newTestGenerator(t, server.URL)

	_, err := generator.Generate(context.Background(), QuestionRequest{Topic: "primes", Grade: 6, Difficulty: "easy", Count: 1, Kind: "choice"})
	require.ErrorIs(t, err, ErrInvalidOutput)
}

func TestGenerateRejectsNonJSON(t *testing.T) {
	server := newTestServer(t, "sure, here are some questions")
	generator := newTestGenerator(t, server.URL)

	_, err := generator.Generate(context.Background(), QuestionRequest{Topic: "primes", Grade: 6, Difficulty: "easy", Count: 1, Kind: "choice"})
	require.ErrorIs(t, err, ErrInvalidOutput)
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{})
	require.Error(t, err)
}
