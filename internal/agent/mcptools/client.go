// Package mcptools binds the tools exposed by an MCP server into the agent
// graph. Discovery happens once per connection; every invocation goes over
// the long-lived session and carries the ambient request/session identifiers.
package mcptools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// caller is the slice of mcp.ClientSession the tools need. Narrowed for tests.
type caller interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}

// Client holds one MCP session and the tools discovered on it.
type Client struct {
	session *mcp.ClientSession
	tools   []tool.BaseTool
	infos   []*schema.ToolInfo
}

// Connect dials the MCP server at endpoint over streamable HTTP and discovers
// its tools. The ctx deadline bounds both the connection and the discovery.
func Connect(ctx context.Context, endpoint, clientName string) (*Client, error) {
	transport := &mcp.StreamableClientTransport{Endpoint: endpoint}

	impl := &mcp.Implementation{
		Name:    clientName,
		Version: "1.0.0",
	}
	session, err := mcp.NewClient(impl, nil).Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcptools: connect to %s: %w", endpoint, err)
	}

	c := &Client{session: session}
	if err := c.discoverTools(ctx); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("mcptools: discover tools: %w", err)
	}
	return c, nil
}

// Tools returns the discovered tools as eino tool bindings.
func (c *Client) Tools() []tool.BaseTool {
	return c.tools
}

// ToolInfos returns the schemas of the discovered tools, for model binding.
func (c *Client) ToolInfos() []*schema.ToolInfo {
	return c.infos
}

// Close shuts down the MCP session.
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) discoverTools(ctx context.Context) error {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return err
	}

	for _, t := range result.Tools {
		info := &schema.ToolInfo{
			Name:        t.Name,
			Desc:        t.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(convertInputSchema(t.InputSchema)),
		}
		c.infos = append(c.infos, info)
		c.tools = append(c.tools, newTool(c.session, info))
	}

	logx.Debug().Int("count", len(c.tools)).Msg("Discovered MCP tools")
	return nil
}
