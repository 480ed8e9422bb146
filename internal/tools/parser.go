package tools

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
)

// Tag grammar markers. Param values are verbatim up to the literal closing
// tag, so values may contain '<', newlines, and anything except "</param>".
const (
	actionOpen  = "<action>"
	actionClose = "</action>"
	invokeOpen  = `<invoke tool="`
	invokeClose = "</invoke>"
	paramOpen   = `<param name="`
	paramClose  = "</param>"
)

// Call is one parsed tool invocation.
type Call struct {
	Tool   string
	Params map[string]interface{}
}

// Parser extracts tool calls from model output. It consults the registry for
// declared parameter types so values are coerced at the parse boundary.
type Parser struct {
	registry *Registry
}

func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse returns the ordered tool calls found in text and the residual content
// with all <action> blocks removed. Malformed blocks are skipped with a
// warning; parsing never aborts.
func (p *Parser) Parse(text string) ([]Call, string) {
	var calls []Call
	var residual strings.Builder

	rest := text
	for {
		start := strings.Index(rest, actionOpen)
		if start < 0 {
			residual.WriteString(rest)
			break
		}
		residual.WriteString(rest[:start])

		after := rest[start+len(actionOpen):]
		end := strings.Index(after, actionClose)
		if end < 0 {
			// Unclosed action block: keep it as plain text.
			slog.Warn("tool parser: unclosed <action> block")
			residual.WriteString(rest[start:])
			break
		}

		calls = append(calls, p.parseBlock(after[:end])...)
		rest = after[end+len(actionClose):]
	}

	return calls, strings.TrimSpace(residual.String())
}

// parseBlock extracts the invokes inside one action block.
func (p *Parser) parseBlock(block string) []Call {
	var calls []Call

	rest := block
	for {
		start := strings.Index(rest, invokeOpen)
		if start < 0 {
			break
		}
		after := rest[start+len(invokeOpen):]

		nameEnd := strings.Index(after, `">`)
		if nameEnd < 0 {
			slog.Warn("tool parser: malformed <invoke> tag, skipping block remainder")
			break
		}
		name := after[:nameEnd]
		body := after[nameEnd+2:]

		bodyEnd := strings.Index(body, invokeClose)
		if bodyEnd < 0 {
			slog.Warn("tool parser: unclosed <invoke>, skipping", "tool", name)
			break
		}

		calls = append(calls, Call{
			Tool:   name,
			Params: p.parseParams(name, body[:bodyEnd]),
		})
		rest = body[bodyEnd+len(invokeClose):]
	}

	return calls
}

// parseParams extracts param values and coerces them per the declared type.
func (p *Parser) parseParams(toolName, body string) map[string]interface{} {
	params := make(map[string]interface{})

	var def *Definition
	if p.registry != nil {
		if t, ok := p.registry.Get(toolName); ok {
			def = &t.Def
		}
	}

	rest := body
	for {
		start := strings.Index(rest, paramOpen)
		if start < 0 {
			break
		}
		after := rest[start+len(paramOpen):]

		nameEnd := strings.Index(after, `">`)
		if nameEnd < 0 {
			slog.Warn("tool parser: malformed <param> tag", "tool", toolName)
			break
		}
		name := after[:nameEnd]
		value := after[nameEnd+2:]

		valueEnd := strings.Index(value, paramClose)
		if valueEnd < 0 {
			slog.Warn("tool parser: unclosed <param>", "tool", toolName, "param", name)
			break
		}

		params[name] = coerceValue(def, name, value[:valueEnd])
		rest = value[valueEnd+len(paramClose):]
	}

	return params
}

// coerceValue decodes a raw string per the declared parameter type.
// Undeclared parameters stay strings.
func coerceValue(def *Definition, name, raw string) interface{} {
	if def == nil {
		return raw
	}
	p := def.param(name)
	if p == nil {
		return raw
	}

	switch p.Type {
	case TypeBoolean:
		switch strings.TrimSpace(raw) {
		case "true":
			return true
		case "false":
			return false
		}
	case TypeNumber:
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return n
		}
	case TypeArray:
		var arr []interface{}
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return arr
		}
	case TypeObject:
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			return obj
		}
	}
	return raw
}

// RenderCall renders a call back into tag form. Used by the round-trip tests.
func RenderCall(tool string, params map[string]interface{}, keys []string) string {
	var sb strings.Builder
	sb.WriteString(actionOpen)
	sb.WriteString("\n")
	sb.WriteString(invokeOpen)
	sb.WriteString(tool)
	sb.WriteString("\">\n")
	for _, k := range keys {
		sb.WriteString("  ")
		sb.WriteString(paramOpen)
		sb.WriteString(k)
		sb.WriteString("\">")
		switch v := params[k].(type) {
		case string:
			sb.WriteString(v)
		default:
			data, _ := json.Marshal(v)
			sb.Write(data)
		}
		sb.WriteString(paramClose)
		sb.WriteString("\n")
	}
	sb.WriteString(invokeClose)
	sb.WriteString("\n")
	sb.WriteString(actionClose)
	return sb.String()
}
