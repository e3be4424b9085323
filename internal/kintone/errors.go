package kintone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FieldMessage is one validation message returned for a record field.
type FieldMessage struct {
	Field   string
	Message string
}

func (m FieldMessage) String() string {
	return fmt.Sprintf("Field: %s, Message: %s", m.Field, m.Message)
}

// APIError is returned when the record store answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Messages   []FieldMessage
}

func (e *APIError) Error() string {
	switch {
	case len(e.Messages) > 0:
		parts := make([]string, len(e.Messages))
		for i, m := range e.Messages {
			parts[i] = m.String()
		}
		return fmt.Sprintf("record store rejected the record (status %d): %s", e.StatusCode, strings.Join(parts, "; "))
	case e.Message != "":
		return fmt.Sprintf("record store error (status %d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("record store error (status %d)", e.StatusCode)
	}
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Errors  map[string]fieldErrors `json:"errors"`
	Details json.RawMessage        `json:"details"`
}

type fieldErrors struct {
	Messages []string `json:"messages"`
}

// parseAPIError builds an APIError from an error response. The backend wraps
// the kintone error in a "details" member that may itself be a JSON string.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var outer errorBody
	if err := json.Unmarshal(unquote(body), &outer); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Code, apiErr.Message = outer.Code, outer.Message
	errs := outer.Errors

	if len(outer.Details) > 0 && !bytes.Equal(outer.Details, []byte("null")) {
		var inner errorBody
		if err := json.Unmarshal(unquote(outer.Details), &inner); err == nil {
			if inner.Code != "" {
				apiErr.Code = inner.Code
			}
			if inner.Message != "" {
				apiErr.Message = inner.Message
			}
			if len(inner.Errors) > 0 {
				errs = inner.Errors
			}
		}
	}
	apiErr.Messages = flatten(errs)
	return apiErr
}

func flatten(errs map[string]fieldErrors) []FieldMessage {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var out []FieldMessage
	for _, f := range fields {
		for _, msg := range errs[f].Messages {
			out = append(out, FieldMessage{Field: f, Message: msg})
		}
	}
	return out
}

// unquote returns the contents of data if it is a JSON string, else data.
func unquote(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return trimmed
	}
	return []byte(s)
}
