package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcp-orchestrator/server/internal/core/ctxkeys"
)

// mcpTool exposes one MCP tool as an eino invokable tool.
type mcpTool struct {
	session caller
	info    *schema.ToolInfo
}

func newTool(session caller, info *schema.ToolInfo) tool.InvokableTool {
	return &mcpTool{session: session, info: info}
}

func (t *mcpTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

// InvokableRun calls the MCP tool. The request and session ids from ctx are
// injected into the arguments so the tool server can correlate the call.
func (t *mcpTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args := map[string]any{}
	if strings.TrimSpace(argumentsInJSON) != "" {
		if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
			return "", fmt.Errorf("mcptools: unmarshal arguments for %s: %w", t.info.Name, err)
		}
	}
	if id := ctxkeys.RequestID(ctx); id != "" {
		args["request_id"] = id
	}
	if id := ctxkeys.SessionID(ctx); id != "" {
		args["session_id"] = id
	}

	result, err := t.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      t.info.Name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("mcptools: call %s: %w", t.info.Name, err)
	}
	if result.IsError {
		if text := extractTextContent(result); text != "" {
			return "", fmt.Errorf("mcptools: tool %s returned error: %s", t.info.Name, text)
		}
		return "", fmt.Errorf("mcptools: tool %s returned error", t.info.Name)
	}
	return extractTextContent(result), nil
}

// extractTextContent joins all TextContent entries from a CallToolResult.
func extractTextContent(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// convertInputSchema flattens an MCP tool's JSON schema into eino parameter
// infos. The SDK's schema type is round-tripped through JSON so only the
// top-level properties and required list matter.
func convertInputSchema(inputSchema any) map[string]*schema.ParameterInfo {
	params := map[string]*schema.ParameterInfo{}
	if inputSchema == nil {
		return params
	}

	data, err := json.Marshal(inputSchema)
	if err != nil {
		return params
	}
	var parsed struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return params
	}

	required := make(map[string]bool, len(parsed.Required))
	for _, name := range parsed.Required {
		required[name] = true
	}
	for name, prop := range parsed.Properties {
		paramType := prop.Type
		if paramType == "" {
			paramType = "string"
		}
		params[name] = &schema.ParameterInfo{
			Type:     schema.DataType(paramType),
			Desc:     prop.Description,
			Required: required[name],
		}
	}
	return params
}
