package providers

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// nativeToolCall is a tool invocation parsed from the OpenAI wire format.
type nativeToolCall struct {
	Name      string
	Arguments map[string]interface{}
}

// renderActionBlock converts native tool calls into the <action> tag form the
// tool parser consumes. Argument order is made deterministic by sorting keys.
func renderActionBlock(calls []nativeToolCall) string {
	if len(calls) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("<action>\n")
	for _, call := range calls {
		fmt.Fprintf(&sb, "<invoke tool=%q>\n", call.Name)

		keys := make([]string, 0, len(call.Arguments))
		for k := range call.Arguments {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Fprintf(&sb, "  <param name=%q>%s</param>\n", k, renderParamValue(call.Arguments[k]))
		}
		sb.WriteString("</invoke>\n")
	}
	sb.WriteString("</action>")
	return sb.String()
}

// renderParamValue flattens an argument value to the verbatim string the tag
// format carries. Scalars print directly; arrays and objects stay JSON.
func renderParamValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers decode as float64; keep integers clean.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case nil:
		return ""
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
