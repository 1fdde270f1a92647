package mcptools

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcp-orchestrator/server/internal/core/ctxkeys"
)

type fakeCaller struct {
	result *mcp.CallToolResult
	err    error
	params *mcp.CallToolParams
}

func (f *fakeCaller) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	f.params = params
	return f.result, f.err
}

func textResult(texts ...string) *mcp.CallToolResult {
	r := &mcp.CallToolResult{}
	for _, t := range texts {
		r.Content = append(r.Content, &mcp.TextContent{Text: t})
	}
	return r
}

func newTestTool(c caller) *mcpTool {
	return &mcpTool{session: c, info: &schema.ToolInfo{Name: "search_profile"}}
}

func TestInvokableRunInjectsAmbientIDs(t *testing.T) {
	fc := &fakeCaller{result: textResult("ok")}
	tl := newTestTool(fc)

	ctx := ctxkeys.WithRequestID(context.Background(), "req-1")
	ctx = ctxkeys.WithSessionID(ctx, "sess-1")

	out, err := tl.InvokableRun(ctx, `{"query":"visa"}`)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	require.NotNil(t, fc.params)
	assert.Equal(t, "search_profile", fc.params.Name)
	args, ok := fc.params.Arguments.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "visa", args["query"])
	assert.Equal(t, "req-1", args["request_id"])
	assert.Equal(t, "sess-1", args["session_id"])
}

func TestInvokableRunEmptyArguments(t *testing.T) {
	fc := &fakeCaller{result: textResult("result")}
	tl := newTestTool(fc)

	out, err := tl.InvokableRun(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "result", out)

	args, ok := fc.params.Arguments.(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, args, "request_id")
}

func TestInvokableRunMalformedArguments(t *testing.T) {
	fc := &fakeCaller{result: textResult("unused")}
	tl := newTestTool(fc)

	_, err := tl.InvokableRun(context.Background(), `{"query":`)
	require.Error(t, err)
	assert.Nil(t, fc.params)
}

func TestInvokableRunToolError(t *testing.T) {
	fc := &fakeCaller{result: &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "index unavailable"}},
	}}
	tl := newTestTool(fc)

	_, err := tl.InvokableRun(context.Background(), `{}`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "index unavailable")
}

func TestInvokableRunTransportError(t *testing.T) {
	fc := &fakeCaller{err: errors.New("connection reset")}
	tl := newTestTool(fc)

	_, err := tl.InvokableRun(context.Background(), `{}`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "search_profile")
}

func TestExtractTextContent(t *testing.T) {
	assert.Empty(t, extractTextContent(nil))
	assert.Empty(t, extractTextContent(&mcp.CallToolResult{}))
	assert.Equal(t, "a\nb", extractTextContent(textResult("a", "b")))
}

func TestConvertInputSchema(t *testing.T) {
	params := convertInputSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "search query"},
			"limit": map[string]any{"type": "integer"},
			"loose": map[string]any{},
		},
		"required": []any{"query"},
	})

	require.Len(t, params, 3)
	assert.Equal(t, schema.String, params["query"].Type)
	assert.Equal(t, "search query", params["query"].Desc)
	assert.True(t, params["query"].Required)
	assert.Equal(t, schema.Integer, params["limit"].Type)
	assert.False(t, params["limit"].Required)
	assert.Equal(t, schema.String, params["loose"].Type)
}

func TestConvertInputSchemaNil(t *testing.T) {
	assert.Empty(t, convertInputSchema(nil))
}
