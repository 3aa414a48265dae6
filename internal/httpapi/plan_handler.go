package httpapi

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/channel"
)

var snowflakeNode *snowflake.Node

func init() {
	// Node 1: every docorch API process issues plan-run IDs from node 1;
	// the node ID is fixed here and not configurable.
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	snowflakeNode = node
}

// handlePlanSubmit implements spec.md §6.2's synchronous half: validate
// the plan up front and report every failure before any generation
// begins. On success it stashes the plan for pickup by the streaming
// endpoint and returns the run ID the client must now connect with.
func (s *Server) handlePlanSubmit(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseProjectID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := s.defaultMode
	if req.Mode != "" {
		mode = admission.Mode(req.Mode)
	}

	p := req.toPlan()
	result, err := s.validator.Validate(r.Context(), p, projectID, mode)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !result.OK {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"failures": toFailureDTOs(result.Failures),
		})
		return
	}

	runID := snowflakeNode.Generate().String()
	s.mu.Lock()
	s.pendingRuns[runID] = pendingRun{
		plan:      p,
		projectID: projectID,
		mode:      mode,
		policy:    req.Policy.toPolicy(),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"planRunId": runID,
		"streamUrl": "/v1/plans/" + runID + "/stream",
	})
}

// handlePlanStream implements spec.md §6.2's streaming half: upgrades to
// a websocket and drives the Plan Executor over it, emitting the events
// and accepting the decisions of spec.md §4.5/§6.2.
func (s *Server) handlePlanStream(w http.ResponseWriter, r *http.Request) {
	runID := chiURLParamRunID(r)

	s.mu.Lock()
	run, ok := s.pendingRuns[runID]
	if ok {
		delete(s.pendingRuns, runID)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or already-started plan run")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("plan stream: websocket upgrade failed", "error", err, "run_id", runID)
		return
	}
	defer conn.Close()

	// sessionID correlates this websocket connection across log lines,
	// distinct from the snowflake-assigned plan run ID: a client that
	// reconnects mid-run would carry the same run ID but a new session ID.
	sessionID := uuid.NewString()

	if s.channelBackend == "redis" && s.redisClient != nil {
		s.runPlanOverRedis(r.Context(), conn, runID, sessionID, run)
		return
	}

	adapter := channel.NewWebSocket(conn)
	exec := s.runExecutor()

	if err := exec.Execute(r.Context(), run.plan, run.projectID, run.mode, run.policy, adapter); err != nil {
		s.logger.Warn("plan stream: run ended with error", "error", err, "run_id", runID, "session_id", sessionID)
	}
}
