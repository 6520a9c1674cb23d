package server

import (
	"fmt"
	"sync"

	"sprint-poker/internal/api"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("notblank", validators.NotBlank)
	})
}

func textMessages(label string, limit int) map[string]string {
	return map[string]string{
		"notblank": label + " is required",
		"required": label + " is required",
		"max":      fmt.Sprintf("%s must be %d characters or fewer", label, limit),
	}
}

var (
	storyMessages = bindMessages{
		"Description": textMessages("Story description", 500),
	}
	voteMessages = bindMessages{
		"VoterName": textMessages("Voter name", 64),
	}
	meetingMessages = bindMessages{
		"Title":   textMessages("Meeting title", 200),
		"Columns": {"max": "A meeting can have at most 20 columns"},
	}
	columnMessages = bindMessages{
		"Title": textMessages("Column title", 200),
	}
	itemMessages = bindMessages{
		"ColumnID":   {"required": "Column ID is required"},
		"ItemID":     {"required": "Item ID is required"},
		"Content":    textMessages("Item content", 1000),
		"AuthorName": textMessages("Author name", 64),
	}
)

// validateVoteValue returns the card value as sent. Values are opaque text;
// only a missing or null value is rejected.
func validateVoteValue(value api.VoteValue) (string, string) {
	if !value.Set {
		return "", "Vote value is required"
	}
	return value.Value, ""
}
