// Command aws-pricing-mcp exposes the AWS Pricing Calculator's public
// endpoints as an MCP stdio server: search a catalog of services, fetch a
// service's configuration schema, configure a service and price it, assemble
// and persist a multi-service estimate, and load one back.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/rshade/aws-pricing-mcp/internal/catalog"
	"github.com/rshade/aws-pricing-mcp/internal/estimate"
	"github.com/rshade/aws-pricing-mcp/internal/evaluator"
	"github.com/rshade/aws-pricing-mcp/internal/pricingtable"
	"github.com/rshade/aws-pricing-mcp/internal/remote"
	"github.com/rshade/aws-pricing-mcp/internal/schema"
	"github.com/rshade/aws-pricing-mcp/internal/tools"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := loadConfig(logger)
	logger = logger.Level(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("received shutdown signal")
		cancel()
	}()

	surface := buildSurface(cfg, logger)
	server := buildServer(surface)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func buildSurface(cfg config, logger zerolog.Logger) *tools.Surface {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fetcher := remote.New(httpClient, logger)

	definitions := remote.NewDefinitionStore(fetcher, cfg.DefinitionBaseURL)
	catalogIndex := catalog.New(fetcher, cfg.ManifestURL)
	extractor := schema.New(definitions)
	pricing := pricingtable.New(fetcher)
	eval := evaluator.New(definitions, pricing, logger)
	assembler := estimate.NewAssembler(definitions, eval, fetcher, cfg.SaveURL, logger)
	loader := estimate.NewLoader(fetcher, cfg.LoadURLTemplate)

	return tools.New(definitions, catalogIndex, extractor, eval, assembler, loader, fetcher, logger)
}

func buildServer(surface *tools.Surface) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "aws-pricing-mcp",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_services",
		Description: "Search the AWS service catalog by name, service code, or keyword",
	}, searchServicesHandler(surface))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_service_schema",
		Description: "Fetch an AWS service's configurable input schema",
	}, getServiceSchemaHandler(surface))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "configure_service",
		Description: "Configure an AWS service with inputs and compute its estimated cost",
	}, configureServiceHandler(surface))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_estimate",
		Description: "Assemble and persist a multi-service cost estimate, returning a shareable link",
	}, createEstimateHandler(surface))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_estimate",
		Description: "Load a previously saved estimate by id or share link",
	}, loadEstimateHandler(surface))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tool_surface_status",
		Description: "Report server uptime and cache state",
	}, statusHandler(surface))

	return server
}
