package main

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rshade/aws-pricing-mcp/internal/catalog"
	"github.com/rshade/aws-pricing-mcp/internal/estimate"
	"github.com/rshade/aws-pricing-mcp/internal/model"
	"github.com/rshade/aws-pricing-mcp/internal/tools"
)

// searchServicesParams is the argument shape for search_services.
type searchServicesParams struct {
	Query string `json:"query" jsonschema:"substring to match against a service's name, code, or search keywords"`
}

type searchServicesResult struct {
	Results []catalog.Entry `json:"results"`
}

func searchServicesHandler(surface *tools.Surface) mcp.ToolHandlerFor[searchServicesParams, searchServicesResult] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params searchServicesParams) (*mcp.CallToolResult, searchServicesResult, error) {
		entries, err := surface.SearchServices(ctx, params.Query)
		if err != nil {
			return errorResult[searchServicesResult](err)
		}
		return textResult(fmt.Sprintf("found %d matching services", len(entries))), searchServicesResult{Results: entries}, nil
	}
}

// getServiceSchemaParams is the argument shape for get_service_schema.
type getServiceSchemaParams struct {
	ServiceCode string `json:"serviceCode" jsonschema:"the AWS service code, e.g. AmazonS3"`
}

func getServiceSchemaHandler(surface *tools.Surface) mcp.ToolHandlerFor[getServiceSchemaParams, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params getServiceSchemaParams) (*mcp.CallToolResult, any, error) {
		result, err := surface.GetServiceSchema(ctx, params.ServiceCode)
		if err != nil {
			return errorResult[any](err)
		}
		return textResult(fmt.Sprintf("schema for %s has %d top-level inputs", params.ServiceCode, len(result.Inputs))), result, nil
	}
}

// configureServiceParams is the argument shape for configure_service.
type configureServiceParams struct {
	ServiceCode string         `json:"serviceCode"`
	Region      string         `json:"region,omitempty" jsonschema:"AWS region code; defaults to us-east-1"`
	Inputs      map[string]any `json:"inputs,omitempty"`
}

type configureServiceResult struct {
	ServiceName           string                      `json:"serviceName"`
	ServiceCode           string                      `json:"serviceCode"`
	Region                string                      `json:"region"`
	MonthlyCost           float64                     `json:"monthlyCost"`
	UpfrontCost           float64                     `json:"upfrontCost"`
	CalculationComponents model.CalculationComponents `json:"calculationComponents"`
	TemplateID            string                      `json:"templateId,omitempty"`
}

func configureServiceHandler(surface *tools.Surface) mcp.ToolHandlerFor[configureServiceParams, configureServiceResult] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params configureServiceParams) (*mcp.CallToolResult, configureServiceResult, error) {
		result, err := surface.ConfigureService(ctx, params.ServiceCode, params.Region, params.Inputs)
		if err != nil {
			return errorResult[configureServiceResult](err)
		}
		out := configureServiceResult{
			ServiceName:           result.ServiceName,
			ServiceCode:           result.ServiceCode,
			Region:                result.Region,
			MonthlyCost:           result.MonthlyCost,
			UpfrontCost:           result.UpfrontCost,
			CalculationComponents: result.CalculationComponents,
			TemplateID:            result.TemplateID,
		}
		return textResult(fmt.Sprintf("%s in %s: $%.2f/month, $%.2f upfront", result.ServiceName, result.Region, result.MonthlyCost, result.UpfrontCost)), out, nil
	}
}

// createEstimateParams is the argument shape for create_estimate.
type createEstimateParams struct {
	Name     string                  `json:"name"`
	Services []createEstimateService `json:"services"`
}

type createEstimateService struct {
	ServiceCode           string         `json:"serviceCode"`
	Region                string         `json:"region,omitempty"`
	RegionName            string         `json:"regionName,omitempty"`
	ServiceName           string         `json:"serviceName,omitempty"`
	Description           *string        `json:"description,omitempty"`
	MonthlyCost           float64        `json:"monthlyCost,omitempty"`
	UpfrontCost           float64        `json:"upfrontCost,omitempty"`
	ConfigSummary         string         `json:"configSummary,omitempty"`
	CalculationComponents map[string]any `json:"calculationComponents,omitempty"`
	TemplateID            string         `json:"templateId,omitempty"`
	Group                 string         `json:"group,omitempty"`
}

type createEstimateResult struct {
	Link     string   `json:"link"`
	Warnings []string `json:"warnings,omitempty"`
	Monthly  float64  `json:"monthly"`
	Upfront  float64  `json:"upfront"`
}

func createEstimateHandler(surface *tools.Surface) mcp.ToolHandlerFor[createEstimateParams, createEstimateResult] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params createEstimateParams) (*mcp.CallToolResult, createEstimateResult, error) {
		services := make([]estimate.ServiceInput, len(params.Services))
		for i, s := range params.Services {
			services[i] = estimate.ServiceInput{
				ServiceCode:           s.ServiceCode,
				Region:                s.Region,
				RegionName:            s.RegionName,
				ServiceName:           s.ServiceName,
				Description:           s.Description,
				MonthlyCost:           s.MonthlyCost,
				UpfrontCost:           s.UpfrontCost,
				ConfigSummary:         s.ConfigSummary,
				CalculationComponents: s.CalculationComponents,
				TemplateID:            s.TemplateID,
				Group:                 s.Group,
			}
		}
		result, err := surface.CreateEstimate(ctx, params.Name, services)
		if err != nil {
			return errorResult[createEstimateResult](err)
		}
		out := createEstimateResult{
			Link:     result.Link,
			Warnings: result.Warnings,
			Monthly:  result.Document.TotalCost.Monthly,
			Upfront:  result.Document.TotalCost.Upfront,
		}
		summary := fmt.Sprintf("saved estimate %q: $%.2f/month, $%.2f upfront — %s", params.Name, out.Monthly, out.Upfront, out.Link)
		if len(out.Warnings) > 0 {
			summary += fmt.Sprintf(" (%d warning(s))", len(out.Warnings))
		}
		return textResult(summary), out, nil
	}
}

// loadEstimateParams is the argument shape for load_estimate.
type loadEstimateParams struct {
	EstimateID string `json:"estimateId" jsonschema:"a saved estimate id, or a calculator.aws share link containing one"`
}

func loadEstimateHandler(surface *tools.Surface) mcp.ToolHandlerFor[loadEstimateParams, estimate.Summary] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params loadEstimateParams) (*mcp.CallToolResult, estimate.Summary, error) {
		result, err := surface.LoadEstimate(ctx, params.EstimateID)
		if err != nil {
			return errorResult[estimate.Summary](err)
		}
		return textResult(fmt.Sprintf("%s: %d service(s), $%.2f/month", result.Summary.Name, len(result.Summary.Services), result.Summary.TotalCost.Monthly)), result.Summary, nil
	}
}

// statusParams takes no arguments; tool_surface_status is a supplemented
// introspection operation, not part of the original five.
type statusParams struct{}

type statusResult struct {
	UptimeSeconds   float64 `json:"uptimeSeconds"`
	CachedDocuments int     `json:"cachedDocuments"`
	ManifestLoaded  bool    `json:"manifestLoaded"`
}

func statusHandler(surface *tools.Surface) mcp.ToolHandlerFor[statusParams, statusResult] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params statusParams) (*mcp.CallToolResult, statusResult, error) {
		st := surface.Status()
		out := statusResult{
			UptimeSeconds:   st.Uptime.Seconds(),
			CachedDocuments: st.CachedDocuments,
			ManifestLoaded:  st.ManifestLoaded,
		}
		return textResult(fmt.Sprintf("up %.0fs, %d cached document(s), manifest loaded: %v", out.UptimeSeconds, out.CachedDocuments, out.ManifestLoaded)), out, nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult[T any](err error) (*mcp.CallToolResult, T, error) {
	var zero T
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}, zero, nil
}
