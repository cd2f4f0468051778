package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-progress-api/internal/rules"
)

func TestCatalogAPI(t *testing.T) {
	stack := newAPIStack(t)
	bearer := token(t, 50, "parent", 1)

	status, body := stack.do(t, http.MethodGet, "/api/v2/catalog/rewards", bearer, nil)
	require.Equal(t, fiber.StatusOK, status)
	rewards := decode[[]rules.RewardItem](t, body.Data)
	require.Len(t, rewards, len(rules.Default().Rewards))
	require.EqualValues(t, len(rewards), body.Meta["count"])

	status, body = stack.do(t, http.MethodGet, "/api/v2/catalog/levels", bearer, nil)
	require.Equal(t, fiber.StatusOK, status)
	levels := decode[[]rules.LevelTier](t, body.Data)
	require.Zero(t, levels[0].MinPoints)

	status, _ = stack.do(t, http.MethodGet, "/api/v2/catalog/badges", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestQuestionAPI_DisabledGenerator(t *testing.T) {
	stack := newAPIStack(t)
	request := map[string]interface{}{"topic": "parity", "grade": 7, "difficulty": "easy", "count": 2}

	status, _ := stack.do(t, http.MethodPost, "/api/v2/teacher/questions/generate", token(t, 1, "student"), request)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = stack.do(t, http.MethodPost, "/api/v2/teacher/questions/generate", token(t, 90, "teacher"), request)
	require.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestSeedAPI_Guards(t *testing.T) {
	stack := newAPIStack(t)

	cases := []struct {
		name   string
		token  string
		body   string
		status int
	}{
		{"wrong token", "nope", `{"students": []}`, fiber.StatusForbidden},
		{"invalid kind", testSeedToken, `{"assignments": [{"id": 1, "student_id": 1, "title": "x", "tasks": [{"id": 5, "kind": "essay", "question": "?"}]}]}`, fiber.StatusBadRequest},
		{"missing name", testSeedToken, `{"students": [{"id": 3}]}`, fiber.StatusBadRequest},
		{"malformed", testSeedToken, `{`, fiber.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v2/admin/seed", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Seed-Token", tc.token)
			status, _ := stack.send(t, req)
			require.Equal(t, tc.status, status)
		})
	}
}

func TestProgressSummaryContract(t *testing.T) {
	stack := newAPIStack(t)
	ada := token(t, 1, "student")
	earnPerfectAssignment(t, stack, ada)

	schemaSource, err := os.ReadFile("testdata/progress_summary.schema.json")
	require.NoError(t, err)
	schema, err := jsonschema.CompileString("progress_summary.schema.json", string(schemaSource))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/students/1/progress", nil)
	req.Header.Set("Authorization", "Bearer "+ada)
	resp, err := stack.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var document interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&document))
	require.NoError(t, schema.Validate(document))
}
