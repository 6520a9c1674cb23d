package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"sprint-poker/internal/api"
	"sprint-poker/internal/store"

	"github.com/gin-gonic/gin"
)

func readJSON(body io.Reader, dest any) error {
	if body == nil {
		return io.EOF
	}
	return json.NewDecoder(body).Decode(dest)
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, api.ErrorResponse{Error: message})
}

// sessionParam returns the addressed session id; routes without one act on
// the global board.
func sessionParam(c *gin.Context) string {
	if id := strings.TrimSpace(c.Param("sessionId")); id != "" {
		return strings.ToUpper(id)
	}
	return store.GlobalSessionID
}

func isGlobalRoute(c *gin.Context) bool {
	return strings.TrimSpace(c.Param("sessionId")) == ""
}

type storeErrorStatus struct {
	err     error
	status  int
	message string
}

var storeErrorStatuses = []storeErrorStatus{
	{store.ErrSessionNotFound, http.StatusNotFound, "Session not found"},
	{store.ErrNotFound, http.StatusNotFound, "Not found"},
	{store.ErrAdminTokenRequired, http.StatusForbidden, "Admin token is required"},
	{store.ErrInvalidAdminToken, http.StatusForbidden, "Invalid admin token"},
	{store.ErrNoActiveStory, http.StatusBadRequest, "No active story found"},
	{store.ErrAlreadyRevealed, http.StatusBadRequest, "Votes have already been revealed. Cannot vote now."},
	{store.ErrNoActiveMeeting, http.StatusNotFound, "No active retro meeting found"},
}

// errorMessages overrides the default message of a store sentinel.
type errorMessages map[error]string

// respondError maps store sentinels to their status and logs anything else
// as a 500 with the failure message.
func respondError(c *gin.Context, err error, overrides errorMessages, failure string) {
	for _, entry := range storeErrorStatuses {
		if !errors.Is(err, entry.err) {
			continue
		}
		message := entry.message
		if override, ok := overrides[entry.err]; ok {
			message = override
		}
		writeError(c, entry.status, message)
		return
	}
	log.Printf("%s path=%s request_id=%s err=%v", strings.ToLower(failure), c.Request.URL.Path, requestID(c), err)
	writeError(c, http.StatusInternalServerError, failure)
}
