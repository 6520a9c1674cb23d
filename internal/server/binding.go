package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type bindMessages map[string]map[string]string

// readBody decodes the JSON body without validating it, so admin checks can
// run before field errors are reported. An empty body decodes as {}.
func readBody(c *gin.Context, req any) bool {
	if err := readJSON(c.Request.Body, req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func validate(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := binding.Validator.ValidateStruct(req); err != nil {
		writeError(c, http.StatusBadRequest, resolveBindError(err, messages, fallback))
		return false
	}
	return true
}

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	return readBody(c, req) && validate(c, req, messages, fallback)
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return msg
				}
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
