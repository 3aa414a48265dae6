package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bacopilot/docorch/internal/channel"
)

func TestPlanSubmitAndStream_HappyPath(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router([]string{"*"}))
	defer srv.Close()

	submitBody, err := json.Marshal(map[string]any{
		"steps": []map[string]any{
			{"docTypes": []map[string]string{{"type": "business-case"}}},
		},
		"mode": "STRICT",
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/projects/1/plans", "application/json", strings.NewReader(string(submitBody)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var submitResult struct {
		PlanRunID string `json:"planRunId"`
		StreamURL string `json:"streamUrl"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitResult))
	require.NotEmpty(t, submitResult.PlanRunID)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + submitResult.StreamURL
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var sawRunCompleted bool
	for i := 0; i < 20; i++ {
		var ev channel.Event
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if ev.Type == channel.EventAwaitDecision {
			require.NoError(t, conn.WriteJSON(channel.Decision{Type: channel.DecisionContinue}))
			continue
		}
		if ev.Type.IsTerminal() {
			sawRunCompleted = ev.Type == channel.EventRunCompleted
			break
		}
	}
	require.True(t, sawRunCompleted)
}

// TestPlanSubmitAndStream_RedisBackend covers the DOCORCH_CHANNEL_BACKEND=
// redis path: the websocket client sees the same event/decision protocol,
// but the Executor is actually driven off a channel.Redis adapter relayed
// through go-redis pub/sub rather than the websocket connection directly.
func TestPlanSubmitAndStream_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s, _ := newTestServer(t)
	s.channelBackend = "redis"
	s.redisClient = redisClient

	srv := httptest.NewServer(s.Router([]string{"*"}))
	defer srv.Close()

	submitBody, err := json.Marshal(map[string]any{
		"steps": []map[string]any{
			{"docTypes": []map[string]string{{"type": "business-case"}}},
		},
		"mode": "STRICT",
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/projects/1/plans", "application/json", strings.NewReader(string(submitBody)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var submitResult struct {
		PlanRunID string `json:"planRunId"`
		StreamURL string `json:"streamUrl"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitResult))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + submitResult.StreamURL
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var sawRunCompleted bool
	for i := 0; i < 20; i++ {
		var ev channel.Event
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if ev.Type == channel.EventAwaitDecision {
			require.NoError(t, conn.WriteJSON(channel.Decision{Type: channel.DecisionContinue}))
			continue
		}
		if ev.Type.IsTerminal() {
			sawRunCompleted = ev.Type == channel.EventRunCompleted
			break
		}
	}
	require.True(t, sawRunCompleted)
}

func TestPlanSubmit_ValidationFailureReturns422(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router([]string{"*"})

	rec := doRequest(t, router, http.MethodPost, "/v1/projects/1/plans", map[string]any{
		"steps": []map[string]any{
			{"docTypes": []map[string]string{{"type": "uiux-mockup"}}},
		},
		"mode": "STRICT",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string][]PlanValidationFailureDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["failures"], 1)
	require.Contains(t, body["failures"][0].MissingRequired, "uiux-wireframe")
}

func TestPlanStream_UnknownRunIDReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router([]string{"*"})

	rec := doRequest(t, router, http.MethodGet, "/v1/plans/does-not-exist/stream", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
