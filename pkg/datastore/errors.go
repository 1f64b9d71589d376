package datastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/getmockd/idmclient/pkg/httputil"
)

// ErrNotFound matches any ResourceError with a 404 status.
var ErrNotFound = errors.New("resource not found")

// ResourceError is an error response from the identity service.
type ResourceError struct {
	Method           string
	Href             string
	Status           int
	Code             int
	Message          string
	DeveloperMessage string
	MoreInfo         string
}

func (e *ResourceError) Error() string {
	msg := e.Message
	if e.DeveloperMessage != "" {
		msg = e.DeveloperMessage
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d (code %d): %s", e.Method, e.Href, e.Status, e.Code, msg)
}

// StatusCode returns the HTTP status code for this error.
func (e *ResourceError) StatusCode() int {
	return e.Status
}

func (e *ResourceError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// parseError turns a non-2xx response into a *ResourceError.
func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	rerr := &ResourceError{
		Method: resp.Request.Method,
		Href:   resp.Request.URL.String(),
		Status: resp.StatusCode,
		Code:   resp.StatusCode,
	}

	var errBody httputil.ErrorBody
	if json.Unmarshal(body, &errBody) == nil && errBody.Message != "" {
		rerr.Message = errBody.Message
		rerr.DeveloperMessage = errBody.DeveloperMessage
		rerr.MoreInfo = errBody.MoreInfo
		if errBody.Code != 0 {
			rerr.Code = errBody.Code
		}
	}
	return rerr
}
