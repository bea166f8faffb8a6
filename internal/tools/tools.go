// Package tools implements the Tool Surface (C9): a thin adapter exposing
// five agent-callable operations over the pricing evaluation engine, plus a
// supplemented status/introspection operation.
package tools

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rshade/aws-pricing-mcp/internal/catalog"
	"github.com/rshade/aws-pricing-mcp/internal/estimate"
	"github.com/rshade/aws-pricing-mcp/internal/evaluator"
	"github.com/rshade/aws-pricing-mcp/internal/model"
	"github.com/rshade/aws-pricing-mcp/internal/normalize"
	"github.com/rshade/aws-pricing-mcp/internal/remote"
	"github.com/rshade/aws-pricing-mcp/internal/schema"
)

const defaultRegion = "us-east-1"

// ConfigureServiceResult is what configure_service hands back (spec.md
// §4.9).
type ConfigureServiceResult struct {
	ServiceName           string
	ServiceCode           string
	Region                string
	MonthlyCost           float64
	UpfrontCost           float64
	CalculationComponents model.CalculationComponents
	TemplateID            string
}

// StatusResult is the supplemented tool_surface_status introspection
// payload (SPEC_FULL.md, not present in the original tool list).
type StatusResult struct {
	Uptime          time.Duration
	CachedDocuments int
	ManifestLoaded  bool
}

// Surface wires C1–C8 together behind the five spec.md §4.9 operations.
type Surface struct {
	definitions *remote.DefinitionStore
	catalog     *catalog.Index
	extractor   *schema.Extractor
	eval        *evaluator.Evaluator
	assembler   *estimate.Assembler
	loader      *estimate.Loader
	fetcher     *remote.Fetcher
	logger      zerolog.Logger
	startedAt   time.Time
}

// New assembles a Surface from its already-constructed collaborators.
func New(
	definitions *remote.DefinitionStore,
	catalogIndex *catalog.Index,
	extractor *schema.Extractor,
	eval *evaluator.Evaluator,
	assembler *estimate.Assembler,
	loader *estimate.Loader,
	fetcher *remote.Fetcher,
	logger zerolog.Logger,
) *Surface {
	return &Surface{
		definitions: definitions,
		catalog:     catalogIndex,
		extractor:   extractor,
		eval:        eval,
		assembler:   assembler,
		loader:      loader,
		fetcher:     fetcher,
		logger:      logger,
		startedAt:   time.Now(),
	}
}

// SearchServices implements search_services(query).
func (s *Surface) SearchServices(ctx context.Context, query string) ([]catalog.Entry, error) {
	return s.catalog.Search(ctx, query)
}

// GetServiceSchema implements get_service_schema(serviceCode).
func (s *Surface) GetServiceSchema(ctx context.Context, serviceCode string) (*schema.ServiceSchema, error) {
	return s.extractor.GetSchema(ctx, serviceCode)
}

// ConfigureService implements configure_service(serviceCode, region, inputs).
func (s *Surface) ConfigureService(ctx context.Context, serviceCode, region string, inputs map[string]any) (*ConfigureServiceResult, error) {
	if region == "" {
		region = defaultRegion
	}
	def, err := s.definitions.Get(ctx, serviceCode)
	if err != nil {
		return nil, err
	}

	fields := schema.ExtractInputs(def)
	calc := normalize.BuildCalcComponents(fields, inputs)
	regionName := model.RegionDisplayName(region)

	cost, err := s.eval.ComputeServiceCost(ctx, def, calc, regionName)
	if err != nil {
		s.logger.Warn().Str("serviceCode", serviceCode).Err(err).Msg("cost computation failed; returning zero cost")
		cost = model.ServiceCost{}
	}

	templateID := ""
	if len(def.Templates) > 0 {
		templateID = def.Templates[0].ID
	}

	return &ConfigureServiceResult{
		ServiceName:           def.ServiceName,
		ServiceCode:           serviceCode,
		Region:                region,
		MonthlyCost:           cost.Monthly,
		UpfrontCost:           cost.Upfront,
		CalculationComponents: calc,
		TemplateID:            templateID,
	}, nil
}

// CreateEstimate implements create_estimate(name, services).
func (s *Surface) CreateEstimate(ctx context.Context, name string, services []estimate.ServiceInput) (*estimate.CreateResult, error) {
	return s.assembler.CreateEstimate(ctx, name, services)
}

// LoadEstimate implements load_estimate(estimateId).
func (s *Surface) LoadEstimate(ctx context.Context, estimateID string) (*estimate.LoadResult, error) {
	return s.loader.LoadEstimate(ctx, estimateID)
}

// Status implements the supplemented tool_surface_status operation.
func (s *Surface) Status() StatusResult {
	return StatusResult{
		Uptime:          time.Since(s.startedAt),
		CachedDocuments: s.fetcher.CacheSize(),
		ManifestLoaded:  s.fetcher.HasManifest(),
	}
}
