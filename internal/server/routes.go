package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"sprint-poker/internal/api"

	"github.com/gin-gonic/gin"
)

type methods map[string]gin.HandlerFunc

var routedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// route registers the allowed handlers for path and answers every other
// common method with 405 and an Allow header.
func route(r gin.IRoutes, path string, handlers methods) {
	allowed := make([]string, 0, len(handlers))
	for method, handler := range handlers {
		r.Handle(method, path, handler)
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")
	for _, method := range routedMethods {
		if _, ok := handlers[method]; ok {
			continue
		}
		r.Handle(method, path, methodNotAllowed(allow))
	}
}

func methodNotAllowed(allow string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Allow", allow)
		c.JSON(http.StatusMethodNotAllowed, api.ErrorResponse{
			Error: fmt.Sprintf("Method %s not allowed", c.Request.Method),
		})
	}
}
