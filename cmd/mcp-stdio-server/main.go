// cmd/mcp-stdio-server is the stdio entry point for an mcpcore-based MCP
// server: it loads MCP_-prefixed configuration, registers a small set of
// demonstration tools, and serves JSON-RPC 2.0 requests from stdin,
// writing responses to stdout.
//
// Startup sequence:
//  1. Redirect the default logger to stderr.
//  2. Load configuration from environment variables.
//  3. Build the ProtocolHandler and register its tools.
//  4. Wire a Stdio transport into a protocol engine.
//  5. Serve until stdin closes or a shutdown signal arrives.
//
// CRITICAL: all logging must go to stderr. Any stray bytes on stdout that
// are not a valid JSON-RPC 2.0 frame corrupt the protocol.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/scrypster/mcpcore/internal/demo"
	"github.com/scrypster/mcpcore/internal/mcp/engine"
	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/server"
	"github.com/scrypster/mcpcore/internal/mcp/transport"
	"github.com/scrypster/mcpcore/internal/mcpconfig"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("mcpcore-stdio-server: ")
	log.SetFlags(log.LstdFlags)

	cfg := mcpconfig.Load()

	handler := server.New(protocol.ServerInfo{Name: "mcpcore-demo", Version: "0.1.0"},
		server.WithInstructions("Demonstration mcpcore server exposing a small fixed tool set."))
	if err := demo.RegisterTools(handler.Tools()); err != nil {
		log.Fatalf("register demo tools: %v", err)
	}
	demo.RegisterPrompts(handler.Prompts())
	demo.RegisterResources(handler.Resources())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received shutdown signal")
		cancel()
	}()

	t := transport.NewStdio(os.Stdin, os.Stdout)
	eng := engine.New(t, engine.NewChain(), handler.Dispatch, engine.WithTimeout(cfg.Reliability.RequestTimeout))

	log.Println("ready — serving JSON-RPC 2.0 on stdin/stdout")
	if err := eng.Run(ctx); err != nil {
		log.Printf("engine stopped: %v", err)
	}
}
