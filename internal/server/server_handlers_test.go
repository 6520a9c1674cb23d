package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func createMeeting(t *testing.T, ts *httptest.Server, sessionID, token string, columns []string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/retro-session/"+sessionID+"/meeting", map[string]any{
		"title":      "Sprint 12",
		"columns":    columns,
		"adminToken": token,
	})
	assertStatus(t, resp, http.StatusOK)
	return decodeBody(t, resp)
}

func fetchMeeting(t *testing.T, ts *httptest.Server, path string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, path, nil)
	assertStatus(t, resp, http.StatusOK)
	return decodeBody(t, resp)
}

func TestRetroWellImproveScenario(t *testing.T) {
	ts := newTestServer(t, testConfig())
	sessionID, token := createRetroSession(t, ts)
	base := "/api/retro-session/" + sessionID

	meeting := createMeeting(t, ts, sessionID, token, []string{"Well", "Improve"})
	columns := meeting["columns"].([]any)
	well := columns[0].(map[string]any)
	if well["title"] != "Well" || columns[1].(map[string]any)["title"] != "Improve" {
		t.Fatalf("unexpected columns %#v", columns)
	}

	resp := doRequest(t, ts, http.MethodPost, base+"/items", map[string]any{
		"columnId":   well["id"],
		"content":    "Pairing went great",
		"authorName": "Alice",
	})
	assertStatus(t, resp, http.StatusOK)

	current := fetchMeeting(t, ts, base+"/meeting")
	columns = current["columns"].([]any)
	if len(columns) != 2 {
		t.Fatalf("expected two columns, got %d", len(columns))
	}
	first := columns[0].(map[string]any)
	items := first["items"].([]any)
	if first["title"] != "Well" || first["order"] != float64(0) || len(items) != 1 {
		t.Fatalf("unexpected first column %#v", first)
	}
	if items[0].(map[string]any)["authorName"] != "Alice" {
		t.Fatalf("unexpected item %#v", items[0])
	}
	if columns[1].(map[string]any)["order"] != float64(1) {
		t.Fatalf("expected ordered columns, got %#v", columns[1])
	}
	if current["itemCount"] != float64(1) || current["columnCount"] != float64(2) {
		t.Fatalf("unexpected version fields %#v", current)
	}
}

func TestRetroMeetingNullWithoutMeeting(t *testing.T) {
	ts := newTestServer(t, testConfig())
	sessionID, _ := createRetroSession(t, ts)

	resp := doRequest(t, ts, http.MethodGet, "/api/retro-session/"+sessionID+"/meeting", nil)
	assertStatus(t, resp, http.StatusOK)
	var body any = decodeAny(t, resp)
	if body != nil {
		t.Fatalf("expected null meeting, got %#v", body)
	}
}

func TestRetroColumnsRequireAdmin(t *testing.T) {
	ts := newTestServer(t, testConfig())
	sessionID, token := createRetroSession(t, ts)
	path := "/api/retro-session/" + sessionID + "/columns"

	resp := doRequest(t, ts, http.MethodPost, path, map[string]string{"title": "Actions"})
	assertError(t, resp, http.StatusForbidden, "Admin token is required")

	resp = doRequest(t, ts, http.MethodPost, path, map[string]string{"title": "Actions", "adminToken": token})
	assertError(t, resp, http.StatusNotFound, "No active retro meeting found")

	createMeeting(t, ts, sessionID, token, nil)
	resp = doRequest(t, ts, http.MethodPost, path, map[string]string{"title": " ", "adminToken": token})
	assertError(t, resp, http.StatusBadRequest, "Column title is required")

	resp = doRequest(t, ts, http.MethodPost, path, map[string]string{"title": "Actions", "adminToken": token})
	assertStatus(t, resp, http.StatusOK)
	column := decodeBody(t, resp)
	if column["order"] != float64(3) {
		t.Fatalf("expected column after defaults, got %#v", column)
	}

	resp = doRequest(t, ts, http.MethodPut, path, map[string]any{"columnId": column["id"], "title": "Follow ups", "adminToken": token})
	assertStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["title"] != "Follow ups" {
		t.Fatalf("unexpected rename %#v", body)
	}

	resp = doRequest(t, ts, http.MethodPut, path, map[string]any{"title": "x", "adminToken": token})
	assertError(t, resp, http.StatusBadRequest, "Column ID is required")

	resp = doRequest(t, ts, http.MethodDelete, path+"?columnId="+uintString(jsonID(t, column["id"]))+"&adminToken="+token, nil)
	assertStatus(t, resp, http.StatusOK)

	resp = doRequest(t, ts, http.MethodDelete, path, map[string]any{"columnId": column["id"], "adminToken": token})
	assertError(t, resp, http.StatusNotFound, "Column not found")
}

func TestRetroDeleteColumnCascadesItems(t *testing.T) {
	ts := newTestServer(t, testConfig())
	sessionID, token := createRetroSession(t, ts)
	base := "/api/retro-session/" + sessionID

	meeting := createMeeting(t, ts, sessionID, token, []string{"Well", "Improve"})
	improve := meeting["columns"].([]any)[1].(map[string]any)
	resp := doRequest(t, ts, http.MethodPost, base+"/items", map[string]any{
		"columnId": improve["id"], "content": "Flaky CI", "authorName": "Bob",
	})
	assertStatus(t, resp, http.StatusOK)
	item := decodeBody(t, resp)

	resp = doRequest(t, ts, http.MethodDelete, base+"/columns", map[string]any{"columnId": improve["id"], "adminToken": token})
	assertStatus(t, resp, http.StatusOK)

	current := fetchMeeting(t, ts, base+"/meeting")
	if current["itemCount"] != float64(0) || current["columnCount"] != float64(1) {
		t.Fatalf("expected cascade, got %#v", current)
	}
	resp = doRequest(t, ts, http.MethodPut, base+"/items", map[string]any{"itemId": item["id"], "content": "still here?"})
	assertError(t, resp, http.StatusNotFound, "Item not found")
}

func TestRetroItemsScopedToSession(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ownerID, ownerToken := createRetroSession(t, ts)
	otherID, otherToken := createRetroSession(t, ts)

	meeting := createMeeting(t, ts, ownerID, ownerToken, []string{"Well"})
	createMeeting(t, ts, otherID, otherToken, nil)
	column := meeting["columns"].([]any)[0].(map[string]any)

	resp := doRequest(t, ts, http.MethodPost, "/api/retro-session/"+otherID+"/items", map[string]any{
		"columnId": column["id"], "content": "sneaky", "authorName": "Eve",
	})
	assertError(t, resp, http.StatusNotFound, "Column not found")

	resp = doRequest(t, ts, http.MethodPost, "/api/retro-session/"+ownerID+"/items", map[string]any{
		"columnId": column["id"], "content": "legit", "authorName": "Alice",
	})
	assertStatus(t, resp, http.StatusOK)
	item := decodeBody(t, resp)

	resp = doRequest(t, ts, http.MethodDelete, "/api/retro-session/"+otherID+"/items?itemId="+uintString(jsonID(t, item["id"])), nil)
	assertError(t, resp, http.StatusNotFound, "Item not found")

	resp = doRequest(t, ts, http.MethodPut, "/api/retro-session/"+ownerID+"/items", map[string]any{"itemId": item["id"], "content": "  edited  "})
	assertStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["content"] != "edited" {
		t.Fatalf("expected trimmed content, got %#v", body)
	}

	resp = doRequest(t, ts, http.MethodDelete, "/api/retro-session/"+ownerID+"/items", map[string]any{"itemId": item["id"]})
	assertStatus(t, resp, http.StatusOK)
}

func TestRetroItemValidation(t *testing.T) {
	ts := newTestServer(t, testConfig())
	sessionID, token := createRetroSession(t, ts)
	meeting := createMeeting(t, ts, sessionID, token, []string{"Well"})
	column := meeting["columns"].([]any)[0].(map[string]any)
	path := "/api/retro-session/" + sessionID + "/items"

	resp := doRequest(t, ts, http.MethodPost, path, map[string]any{"content": "x", "authorName": "a"})
	assertError(t, resp, http.StatusBadRequest, "Column ID is required")
	resp = doRequest(t, ts, http.MethodPost, path, map[string]any{"columnId": column["id"], "content": " ", "authorName": "a"})
	assertError(t, resp, http.StatusBadRequest, "Item content is required")
	resp = doRequest(t, ts, http.MethodPost, path, map[string]any{"columnId": column["id"], "content": "x"})
	assertError(t, resp, http.StatusBadRequest, "Author name is required")
	resp = doRequest(t, ts, http.MethodDelete, path, nil)
	assertError(t, resp, http.StatusBadRequest, "Valid item ID is required")
}

func TestRetroMeetingTitle(t *testing.T) {
	ts := newTestServer(t, testConfig())
	sessionID, token := createRetroSession(t, ts)
	path := "/api/retro-session/" + sessionID + "/meeting"

	resp := doRequest(t, ts, http.MethodPut, path, map[string]string{"title": "Renamed", "adminToken": token})
	assertError(t, resp, http.StatusNotFound, "No active meeting found")

	createMeeting(t, ts, sessionID, token, nil)
	resp = doRequest(t, ts, http.MethodPut, path, map[string]string{"title": "", "adminToken": token})
	assertError(t, resp, http.StatusBadRequest, "Meeting title is required")
	resp = doRequest(t, ts, http.MethodPut, path, map[string]string{"title": "Renamed", "adminToken": token})
	assertStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["title"] != "Renamed" {
		t.Fatalf("unexpected meeting %#v", body)
	}
}

func TestGetRetroSession(t *testing.T) {
	ts := newTestServer(t, testConfig())
	sessionID, token := createRetroSession(t, ts)
	createMeeting(t, ts, sessionID, token, []string{"Well"})

	body := fetchMeeting(t, ts, "/api/retro-session/"+sessionID+"?adminToken="+token)
	if body["isAdmin"] != true || body["hasActiveMeeting"] != true {
		t.Fatalf("unexpected retro session %#v", body)
	}
	meeting := body["activeMeeting"].(map[string]any)
	if meeting["title"] != "Sprint 12" {
		t.Fatalf("unexpected active meeting %#v", meeting)
	}
}

func TestGlobalRetroMeetingCreatedOnRead(t *testing.T) {
	ts := newTestServer(t, testConfig())

	meeting := fetchMeeting(t, ts, "/api/retro/meeting")
	columns := meeting["columns"].([]any)
	if meeting["title"] != "Retro Meeting" || len(columns) != 3 {
		t.Fatalf("expected default meeting, got %#v", meeting)
	}
	if columns[0].(map[string]any)["title"] != "What went well" {
		t.Fatalf("unexpected default column %#v", columns[0])
	}
	again := fetchMeeting(t, ts, "/api/retro/meeting")
	if again["id"] != meeting["id"] {
		t.Fatalf("expected the same meeting on second read")
	}

	resp := doRequest(t, ts, http.MethodPost, "/api/retro/columns", map[string]string{"title": "Kudos"})
	assertStatus(t, resp, http.StatusOK)
}
