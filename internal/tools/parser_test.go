package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	noop := func(ctx context.Context, args map[string]interface{}) *Result { return NewResult("ok") }

	require.NoError(t, r.Register(&Tool{
		Def: Definition{
			Name: "read_file",
			Params: []Param{
				{Name: "path", Type: TypeString, Required: true},
				{Name: "encoding", Type: TypeString, Default: "utf-8"},
			},
			Safe: true,
		},
		Handler: noop,
	}))
	require.NoError(t, r.Register(&Tool{
		Def: Definition{
			Name: "run_command",
			Params: []Param{
				{Name: "command", Type: TypeString, Required: true},
				{Name: "args", Type: TypeArray},
				{Name: "verbose", Type: TypeBoolean},
				{Name: "timeout", Type: TypeNumber},
			},
		},
		Handler: noop,
	}))
	return r
}

func TestParseSingleCall(t *testing.T) {
	p := NewParser(testRegistry(t))

	calls, residual := p.Parse(`I'll read the file.
<action>
<invoke tool="read_file">
  <param name="path">hello.txt</param>
</invoke>
</action>`)

	require.Len(t, calls, 1)
	assert.Equal(t, "read_file", calls[0].Tool)
	assert.Equal(t, "hello.txt", calls[0].Params["path"])
	assert.Equal(t, "I'll read the file.", residual)
}

func TestParseCoercion(t *testing.T) {
	p := NewParser(testRegistry(t))

	calls, _ := p.Parse(`<action><invoke tool="run_command">
<param name="command">go</param>
<param name="args">["test","./..."]</param>
<param name="verbose">true</param>
<param name="timeout">30</param>
<param name="unknown">raw string</param>
</invoke></action>`)

	require.Len(t, calls, 1)
	params := calls[0].Params
	assert.Equal(t, "go", params["command"])
	assert.Equal(t, []interface{}{"test", "./..."}, params["args"])
	assert.Equal(t, true, params["verbose"])
	assert.Equal(t, float64(30), params["timeout"])
	// Parameters not declared by the tool stay strings.
	assert.Equal(t, "raw string", params["unknown"])
}

func TestParseValueMayContainAngleBrackets(t *testing.T) {
	p := NewParser(testRegistry(t))

	content := "a < b\n<html>\n</html>\nmulti\nline"
	calls, _ := p.Parse(`<action><invoke tool="read_file"><param name="path">` + content + `</param></invoke></action>`)

	require.Len(t, calls, 1)
	assert.Equal(t, content, calls[0].Params["path"])
}

func TestParseMultipleCallsPreserveOrder(t *testing.T) {
	p := NewParser(testRegistry(t))

	calls, residual := p.Parse(`before
<action>
<invoke tool="read_file"><param name="path">a.txt</param></invoke>
<invoke tool="read_file"><param name="path">b.txt</param></invoke>
</action>
middle
<action>
<invoke tool="run_command"><param name="command">ls</param></invoke>
</action>
after`)

	require.Len(t, calls, 3)
	assert.Equal(t, "a.txt", calls[0].Params["path"])
	assert.Equal(t, "b.txt", calls[1].Params["path"])
	assert.Equal(t, "run_command", calls[2].Tool)
	assert.Contains(t, residual, "before")
	assert.Contains(t, residual, "middle")
	assert.Contains(t, residual, "after")
}

func TestParseMalformedBlockSkipped(t *testing.T) {
	p := NewParser(testRegistry(t))

	// Unclosed invoke: the block is skipped, parsing continues with the
	// next action block.
	calls, _ := p.Parse(`<action>
<invoke tool="read_file"><param name="path">a.txt</param>
</action>
<action><invoke tool="read_file"><param name="path">b.txt</param></invoke></action>`)

	require.Len(t, calls, 1)
	assert.Equal(t, "b.txt", calls[0].Params["path"])
}

func TestParseUnclosedActionKeptAsText(t *testing.T) {
	p := NewParser(testRegistry(t))

	calls, residual := p.Parse("some text <action><invoke tool=\"read_file\">")
	assert.Empty(t, calls)
	assert.Contains(t, residual, "<action>")
}

func TestParseRoundTrip(t *testing.T) {
	p := NewParser(testRegistry(t))

	params := map[string]interface{}{
		"path":     "src/main.go",
		"encoding": "utf-8",
	}
	rendered := RenderCall("read_file", params, []string{"path", "encoding"})
	calls, residual := p.Parse(rendered)

	require.Len(t, calls, 1)
	assert.Empty(t, residual)
	assert.Equal(t, "read_file", calls[0].Tool)
	assert.Equal(t, params, calls[0].Params)
}

func TestRegistryDuplicateRejected(t *testing.T) {
	r := testRegistry(t)
	err := r.Register(&Tool{Def: Definition{Name: "read_file"}})
	var dup *ErrDuplicateTool
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "read_file", dup.Name)
}
