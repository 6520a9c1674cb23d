package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func createPokerSession(t *testing.T, ts *httptest.Server) (string, string) {
	t.Helper()
	return createSession(t, ts, "/api/poker-session/create")
}

func createRetroSession(t *testing.T, ts *httptest.Server) (string, string) {
	t.Helper()
	return createSession(t, ts, "/api/retro-session/create")
}

func createSession(t *testing.T, ts *httptest.Server, path string) (string, string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, path, nil)
	assertStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	return body["sessionId"].(string), body["adminToken"].(string)
}

func createStory(t *testing.T, ts *httptest.Server, sessionID, token, description string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/poker-session/"+sessionID+"/story", map[string]any{
		"description": description,
		"adminToken":  token,
	})
	assertStatus(t, resp, http.StatusOK)
}

func castVote(t *testing.T, ts *httptest.Server, sessionID, voter string, value any) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost, "/api/poker-session/"+sessionID+"/votes", map[string]any{
		"voterName": voter,
		"voteValue": value,
	})
}

func fetchVotes(t *testing.T, ts *httptest.Server, sessionID string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/poker-session/"+sessionID+"/votes", nil)
	assertStatus(t, resp, http.StatusOK)
	return decodeBody(t, resp)
}

func adminPost(t *testing.T, ts *httptest.Server, path, token string) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost, path, map[string]string{"adminToken": token})
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	return doRawRequest(t, ts, method, path, body, payload != nil)
}

func doRawRequest(t *testing.T, ts *httptest.Server, method, path string, body *bytes.Reader, isJSON bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode)
	}
}

func assertError(t *testing.T, resp *http.Response, status int, message string) {
	t.Helper()
	assertStatus(t, resp, status)
	body := decodeBody(t, resp)
	if body["error"] != message {
		t.Fatalf("expected error %q, got %#v", message, body["error"])
	}
}

func assertString(t *testing.T, value any) string {
	t.Helper()
	s, ok := value.(string)
	if !ok {
		t.Fatalf("expected string, got %T", value)
	}
	return s
}

func jsonID(t *testing.T, value any) uint {
	t.Helper()
	number, ok := value.(float64)
	if !ok {
		t.Fatalf("expected numeric id, got %T", value)
	}
	return uint(number)
}

func uintString(value uint) string {
	return strconv.FormatUint(uint64(value), 10)
}

func decodeAny(t *testing.T, resp *http.Response) any {
	t.Helper()
	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}
