// Package normalize turns an agent invocation result into a generic record,
// preferring the structured channel and falling back to extracting JSON from
// free-form text.
package normalize

import (
	"fmt"

	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
)

type Reason string

const (
	ReasonAgentInvocationFailed Reason = "agent_invocation_failed"
	ReasonUnparsableResponse    Reason = "unparsable_response"
)

// Channel identifies where a record came from.
type Channel string

const (
	ChannelTrusted Channel = "trusted"
	ChannelRaw     Channel = "raw"
	ChannelNone    Channel = "none"
)

// Error is the failure variant of Normalize. It matches
// domain.ErrAgentInvocationFailed or domain.ErrUnparsableResponse under
// errors.Is depending on Reason.
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *Error) Unwrap() error {
	if e.Reason == ReasonAgentInvocationFailed {
		return &domain.AgentError{Message: e.Detail}
	}
	return domain.ErrUnparsableResponse
}

// Normalize returns the record carried by res, or an *Error.
func Normalize(res domain.AgentInvocationResult) (domain.Record, error) {
	rec, _, err := Classify(res)
	return rec, err
}

// Classify is Normalize that also reports the channel the record came from.
// Rules are applied in order and the first match wins.
func Classify(res domain.AgentInvocationResult) (domain.Record, Channel, error) {
	if !res.Success {
		return nil, ChannelNone, &Error{Reason: ReasonAgentInvocationFailed, Detail: res.Error}
	}

	if res.Response != nil {
		if obj, ok := res.Response.Result.(map[string]any); ok && len(obj) > 0 {
			return domain.Record(obj), ChannelTrusted, nil
		}
	}

	text, ok := textPayload(res)
	if !ok {
		return nil, ChannelNone, &Error{Reason: ReasonUnparsableResponse, Detail: "no structured result and no raw response"}
	}

	v, found := Extract(text)
	if !found {
		return nil, ChannelNone, &Error{Reason: ReasonUnparsableResponse, Detail: "no JSON found in raw response"}
	}
	obj, isObj := v.(map[string]any)
	if !isObj {
		return nil, ChannelNone, &Error{Reason: ReasonUnparsableResponse, Detail: fmt.Sprintf("raw response holds %T, not an object", v)}
	}
	if reported, hasErr := obj["error"]; hasErr {
		return nil, ChannelNone, &Error{Reason: ReasonUnparsableResponse, Detail: fmt.Sprintf("payload reports error: %v", reported)}
	}
	if len(obj) == 0 {
		return nil, ChannelNone, &Error{Reason: ReasonUnparsableResponse, Detail: "raw response holds an empty object"}
	}
	return domain.Record(obj), ChannelRaw, nil
}

// textPayload picks the free-form text to scan: raw_response first, then a
// string sitting in response.result.
func textPayload(res domain.AgentInvocationResult) (string, bool) {
	if res.RawResponse != nil && *res.RawResponse != "" {
		return *res.RawResponse, true
	}
	if res.Response != nil {
		if s, ok := res.Response.Result.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
