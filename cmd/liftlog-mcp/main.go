package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// liftlog-mcp serves the MCP tools over stdio, reading history from a
// remote LiftLog server's REST API.
func main() {
	serverURL := flag.String("server", os.Getenv("LIFTLOG_URL"), "LiftLog server URL")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_AUTH_API_KEY"), "API key, if the server requires one")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-mcp -server <URL> [-api-key KEY]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := mcp.New(mcp.NewHTTPClient(*serverURL, *apiKey), Version, log)
	log.Info("serving MCP over stdio", "server", *serverURL)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
