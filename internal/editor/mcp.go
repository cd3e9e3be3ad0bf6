package editor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// projectStatusTool is the tool name the editor-integration server exposes.
const projectStatusTool = "project_status"

// MCPProber probes editor liveness through an MCP editor-integration server
// spawned as a subprocess. The session is established lazily and reused; any
// transport error tears it down so the next probe reconnects.
type MCPProber struct {
	command []string

	mu      sync.Mutex
	session *mcp.ClientSession
}

// NewMCPProber creates a prober that launches the given integration command
// (argv form, e.g. ["keydrop-editor-bridge"]).
func NewMCPProber(command []string) (*MCPProber, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("editor: integration command is required")
	}
	return &MCPProber{command: command}, nil
}

// Probe asks the integration server whether the editor has projectPath open.
func (p *MCPProber) Probe(ctx context.Context, projectPath string) (Status, error) {
	session, err := p.connect(ctx)
	if err != nil {
		return StatusUnknown, err
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: projectStatusTool,
		Arguments: map[string]any{
			"project_path": projectPath,
		},
	})
	if err != nil {
		p.drop(session)
		return StatusUnknown, fmt.Errorf("editor: %s call failed: %w", projectStatusTool, err)
	}
	if res.IsError {
		return StatusUnknown, fmt.Errorf("editor: %s returned an error", projectStatusTool)
	}

	return parseStatusResult(res)
}

// Close shuts down the integration session if one is open.
func (p *MCPProber) Close() error {
	p.mu.Lock()
	session := p.session
	p.session = nil
	p.mu.Unlock()

	if session != nil {
		return session.Close()
	}
	return nil
}

func (p *MCPProber) connect(ctx context.Context) (*mcp.ClientSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil {
		return p.session, nil
	}

	cmd := exec.CommandContext(context.Background(), p.command[0], p.command[1:]...)
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "keydrop",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("editor: failed to connect to integration server: %w", err)
	}
	p.session = session
	return session, nil
}

func (p *MCPProber) drop(session *mcp.ClientSession) {
	p.mu.Lock()
	if p.session == session {
		p.session = nil
	}
	p.mu.Unlock()
	_ = session.Close()
}

// parseStatusResult extracts the tri-state status from a tool result. The
// server reports {"status": "open"|"closed"}; anything else is Unknown.
func parseStatusResult(res *mcp.CallToolResult) (Status, error) {
	if m, ok := res.StructuredContent.(map[string]any); ok {
		if s, ok := m["status"].(string); ok {
			return statusFromString(s), nil
		}
	}
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			return statusFromString(strings.TrimSpace(text.Text)), nil
		}
	}
	return StatusUnknown, fmt.Errorf("editor: %s returned no status", projectStatusTool)
}

func statusFromString(s string) Status {
	switch strings.ToLower(s) {
	case "open":
		return StatusOpen
	case "closed":
		return StatusClosed
	default:
		return StatusUnknown
	}
}
