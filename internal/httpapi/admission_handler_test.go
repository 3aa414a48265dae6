package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/executor"
	"github.com/bacopilot/docorch/internal/generator"
	"github.com/bacopilot/docorch/internal/plan"
	"github.com/bacopilot/docorch/internal/project"
)

func newTestServer(t *testing.T) (*Server, *project.MemStore) {
	t.Helper()
	store := project.NewMemStore()
	insp := project.NewInspector(store, catalog.Default())
	eval := admission.NewEvaluator(catalog.Default(), insp)
	val := plan.NewValidator(eval)
	gen := generator.NewMockGenerator()
	s := NewServer(eval, val, gen, executor.NewRegistry(time.Hour), nil, Options{})
	return s, store
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleAdmission_EntryPointEmptyProject(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router([]string{"*"})

	rec := doRequest(t, router, http.MethodPost, "/v1/projects/1/admission", AdmissionRequest{
		DocType: "stakeholder-register", Mode: "STRICT",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var dto VerdictDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.True(t, dto.Satisfied)
	assert.Empty(t, dto.MissingRequired)
}

func TestHandleAdmission_BlockedReturns422WithDetails(t *testing.T) {
	s, store := newTestServer(t)
	store.Add(1, project.Artifact{
		DocType: "high-level-requirements", Origin: project.OriginAIGenerated,
		Path: "/a/hlr.json", CreatedAt: time.Now(),
	})
	router := s.Router([]string{"*"})

	rec := doRequest(t, router, http.MethodPost, "/v1/projects/1/admission", AdmissionRequest{
		DocType: "uiux-mockup", Mode: "STRICT",
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]VerdictDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["details"].Satisfied)
	assert.Contains(t, body["details"].MissingRequired, "uiux-wireframe")
}

func TestHandleAdmission_OverrideReturns200WithWarnings(t *testing.T) {
	s, store := newTestServer(t)
	store.Add(1, project.Artifact{
		DocType: "high-level-requirements", Origin: project.OriginAIGenerated,
		Path: "/a/hlr.json", CreatedAt: time.Now(),
	})
	router := s.Router([]string{"*"})

	allow := true
	rec := doRequest(t, router, http.MethodPost, "/v1/projects/1/admission", AdmissionRequest{
		DocType: "uiux-mockup", Mode: "GUIDED", AllowOverride: &allow,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]VerdictDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["warnings"].WarningMessage)
}

func TestHandleAdmission_RejectsInvalidMode(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router([]string{"*"})

	rec := doRequest(t, router, http.MethodPost, "/v1/projects/1/admission", map[string]string{
		"docType": "business-case", "mode": "YOLO",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAdmission_RejectsBadProjectID(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router([]string{"*"})

	rec := doRequest(t, router, http.MethodPost, "/v1/projects/not-a-number/admission", AdmissionRequest{
		DocType: "business-case",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router([]string{"*"})

	rec := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
