// cmd/mcp-demo-client launches cmd/mcp-stdio-server as a child process,
// speaks MCP over its stdin/stdout, and exercises the handshake plus
// tools/list and a tools/call of the echo tool. It exists
// to give the SDK an end-to-end smoke path that does not depend on any
// particular host application, the same role the teacher's own
// memento-mcp binary plays when run by hand against Claude Desktop.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/mcpcore/internal/mcp/client"
	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/transport"
)

func main() {
	log.SetPrefix("mcpcore-demo-client: ")

	serverPath := "mcp-stdio-server"
	if len(os.Args) > 1 {
		serverPath = os.Args[1]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cmd := exec.CommandContext(ctx, serverPath)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Fatalf("stdin pipe: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Fatalf("stdout pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		log.Fatalf("start %s: %v", serverPath, err)
	}
	defer func() { _ = cmd.Wait() }()

	t := transport.NewStdio(stdout, stdin)
	c := client.New(t, protocol.ClientInfo{Name: "mcpcore-demo-client", Version: "0.1.0"}, protocol.ClientCapabilities{}, nil)

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	go func() {
		if err := c.Run(runCtx); err != nil {
			log.Printf("client engine stopped: %v", err)
		}
	}()

	initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
	defer initCancel()
	if err := c.Initialize(initCtx, serverPath); err != nil {
		log.Fatalf("initialize: %v", err)
	}
	fmt.Printf("connected to %s %s (protocol %s)\n", c.ServerInfo().Name, c.ServerInfo().Version, c.NegotiatedVersion())

	listCtx, listCancel := context.WithTimeout(ctx, 10*time.Second)
	defer listCancel()
	tools, err := c.ListTools(listCtx, "")
	if err != nil {
		log.Fatalf("tools/list: %v", err)
	}
	fmt.Printf("server advertises %d tool(s):\n", len(tools.Tools))
	for _, t := range tools.Tools {
		fmt.Printf("  - %s: %s\n", t.Name, t.Description)
	}

	callCtx, callCancel := context.WithTimeout(ctx, 10*time.Second)
	defer callCancel()
	result, err := c.CallTool(callCtx, "echo", map[string]any{"message": "hello from mcpcore-demo-client"})
	if err != nil {
		log.Fatalf("tools/call echo: %v", err)
	}
	for _, item := range result.Content {
		if item.Type == "text" {
			fmt.Printf("echo replied: %s\n", item.Text)
		}
	}
}
