// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"encoding/json"
	"strings"
)

// flexString decodes a JSON value that providers emit inconsistently as a
// string, a list of strings, an object with a "$" text member (OpenAIRE's
// XML-to-JSON rendering) or a list of such objects. Lists keep their first
// non-empty element. Anything else decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	*f = flexString(decodeFlex(data))
	return nil
}

func decodeFlex(data []byte) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj struct {
		Text json.RawMessage `json:"$"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && len(obj.Text) > 0 {
		return decodeFlex(obj.Text)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		for _, item := range list {
			if v := decodeFlex(item); v != "" {
				return v
			}
		}
	}
	return ""
}
