package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var a *App

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func TestUnknownRoute(t *testing.T) {
	a = newTestApp(t, newStubRepo())
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a = newTestApp(t, newStubRepo())
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	a = newTestApp(t, newStubRepo())
	req, _ := http.NewRequest("GET", "/metrics", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)
}

func TestApp_ConversationsHandlerInvalidRoute(t *testing.T) {
	a = newTestApp(t, newStubRepo())
	req, _ := http.NewRequest("GET", "api/v1/conversations", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusMovedPermanently, response.Code)
}

func TestApp_ConversationsHandlerUnauthorized(t *testing.T) {
	a = newTestApp(t, newStubRepo())
	req, _ := http.NewRequest("GET", "/api/v1/conversations", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_ConversationsHandlerInvalidToken(t *testing.T) {
	a = newTestApp(t, newStubRepo())
	req, _ := http.NewRequest("GET", "/api/v1/conversations", nil)
	req.Header.Add("Authorization", "Bearer asdfasdf")
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
	require.JSONEq(t, `{"error": "unauthorized"}`, response.Body.String())
}

func TestApp_ZeroValueNew(t *testing.T) {
	app := &App{}
	app.Router = app.New()
	require.NotNil(t, app.Manager)
	require.NotNil(t, app.Hub)
	t.Cleanup(app.Manager.Shutdown)
}
