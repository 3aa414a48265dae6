package httpapi

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/bacopilot/docorch/internal/channel"
)

// runPlanOverRedis drives the Executor against a channel.Redis adapter
// instead of handing the websocket connection to it directly, and relays
// between the two: Executor events published to redis are forwarded onto
// the websocket, and decisions read off the websocket are published back
// onto redis for the Executor's Await to pick up. This is the same split
// config.TransportConfig's doc comment describes — the process serving the
// websocket need not be the process running the Executor — demonstrated
// here within a single process so DOCORCH_CHANNEL_BACKEND=redis actually
// changes the run's transport rather than being a no-op.
func (s *Server) runPlanOverRedis(ctx context.Context, conn *websocket.Conn, runID, sessionID string, run pendingRun) {
	relayCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	adapter := channel.NewRedis(s.redisClient, runID)
	defer adapter.Close()

	events, err := adapter.Subscribe(relayCtx)
	if err != nil {
		s.logger.Warn("plan stream: redis subscribe failed", "error", err, "run_id", runID)
		return
	}

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		for ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}()

	go func() {
		for {
			var d channel.Decision
			if err := conn.ReadJSON(&d); err != nil {
				return
			}
			if err := adapter.PublishDecision(relayCtx, d); err != nil {
				return
			}
		}
	}()

	exec := s.runExecutor()
	if err := exec.Execute(relayCtx, run.plan, run.projectID, run.mode, run.policy, adapter); err != nil {
		s.logger.Warn("plan stream: run ended with error", "error", err, "run_id", runID, "session_id", sessionID)
	}

	cancel()
	<-relayDone
}
