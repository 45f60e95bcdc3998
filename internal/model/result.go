package model

import "encoding/json"

// Result is the envelope every remote API response uses.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`

	// Transport is set when the request never produced a well-formed
	// response (network error, bad status, unparseable body).
	Transport bool `json:"-"`
}

// Failure builds an unsuccessful result.
func Failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// TransportFailure builds a result for a request that got no usable response.
func TransportFailure(msg string) Result {
	return Result{Success: false, Error: msg, Transport: true}
}

// Decode unmarshals the result data into target.
func (r Result) Decode(target any) error {
	return json.Unmarshal(r.Data, target)
}
