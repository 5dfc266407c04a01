package eventstore

import "strings"

// failureSubstrings are checked, in order, against the status/message/result
// fields of a tool response when no explicit success/error indicator is
// present.
var failureSubstrings = []string{
	"failed to",
	"error occurred",
	"exception raised",
	"timed out",
	"execution failed",
}

// ToolSucceeded applies the priority rules of the post_tool_use success
// heuristic to a decoded tool_response object: an explicit "success" field
// wins outright; failing that, an explicit error indicator counts as
// failure; failing that, known failure substrings in status/message/result
// count as failure; anything else is treated as success. This is a
// tool-execution verdict, not a judgment about the change it made.
func ToolSucceeded(response map[string]any) bool {
	if v, ok := response["success"]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}

	if isErr, ok := response["is_error"]; ok {
		if truthy(isErr) {
			return false
		}
	}
	if errVal, ok := response["error"]; ok {
		if s, ok := errVal.(string); ok && s != "" {
			return false
		}
	}

	for _, field := range []string{"status", "message", "result"} {
		v, ok := response[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		lower := strings.ToLower(s)
		for _, bad := range failureSubstrings {
			if strings.Contains(lower, bad) {
				return false
			}
		}
	}

	return true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	default:
		return v != nil
	}
}
