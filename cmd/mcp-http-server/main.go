// cmd/mcp-http-server is the streamable-HTTP entry point for an
// mcpcore-based MCP server: each new Mcp-Session-Id gets its own
// protocol engine wrapping an HTTPSession, so concurrent clients never
// share pending-call or progress-subscriber state, mirroring the
// teacher's per-connection WebSocket hub generalized to HTTP+SSE.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/mcpcore/internal/demo"
	"github.com/scrypster/mcpcore/internal/mcp/engine"
	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/server"
	"github.com/scrypster/mcpcore/internal/mcp/transport"
	"github.com/scrypster/mcpcore/internal/mcpconfig"
)

func main() {
	log.SetPrefix("mcpcore-http-server: ")

	cfg := mcpconfig.Load()

	handler := server.New(protocol.ServerInfo{Name: "mcpcore-demo-http", Version: "0.1.0"},
		server.WithInstructions("Demonstration mcpcore server over streamable HTTP."))
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

	httpTransport := transport.NewHTTPServer(cfg.Transport.HTTPPath)

	go acceptLoop(ctx, httpTransport, handler, cfg)

	httpServer := &http.Server{
		Addr:              cfg.Transport.HTTPAddr,
		Handler:           httpTransport.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s%s", cfg.Transport.HTTPAddr, cfg.Transport.HTTPPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server: %v", err)
	}
}

// acceptLoop hands each newly established HTTPSession to its own engine,
// running the engine's receive loop for the lifetime of that session.
func acceptLoop(ctx context.Context, httpTransport *transport.HTTPServer, handler *server.ProtocolHandler, cfg *mcpconfig.Config) {
	for {
		sess, err := httpTransport.Accept(ctx)
		if err != nil {
			return
		}
		go func() {
			eng := engine.New(sess, engine.NewChain(), handler.Dispatch, engine.WithTimeout(cfg.Reliability.RequestTimeout))
			if err := eng.Run(ctx); err != nil {
				log.Printf("session engine stopped: %v", err)
			}
		}()
	}
}
