package connector

import (
	"net/http"

	"github.com/koustreak/biconnector/internal/errs"
)

// Response is the outcome of one operation: an HTTP status and a body that
// encodes to JSON.
type Response struct {
	Status int
	Body   any
}

// StatusBody is the body of a check response.
type StatusBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorBody is the body of every failed non-check response.
type ErrorBody struct {
	Error string `json:"error"`
}

const msgTableRequired = "Table name is required"

func ok(body any) Response {
	return Response{Status: http.StatusOK, Body: body}
}

func errorResponse(status int, msg string) Response {
	return Response{Status: status, Body: ErrorBody{Error: msg}}
}

func failure(err error) Response {
	return errorResponse(http.StatusInternalServerError, messageOf(err))
}

func messageOf(err error) string {
	if msg := errs.Message(err); msg != "" {
		return msg
	}
	return "internal error"
}
