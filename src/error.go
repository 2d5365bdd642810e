package main

import (
	"net/http"

	"github.com/pkg/errors"
)

// ErrBotExists is returned by a registry when the bot name is taken
var ErrBotExists = errors.New("bot already exists")

// InvalidJSONError is returned when a config document does not parse
type InvalidJSONError struct {
	Err error
}

func (e *InvalidJSONError) Error() string {
	return e.Err.Error()
}

// FailureResponse is the body of every rejected API call
type FailureResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

// Failure reports a validation problem to the caller. The status stays 200, the body carries ok:false.
func Failure(message string) (int, interface{}) {
	return http.StatusOK, FailureResponse{
		Ok:    false,
		Error: message,
	}
}
