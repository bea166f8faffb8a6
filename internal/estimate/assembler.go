// Package estimate implements the Estimate Assembler (C7) and Estimate
// Loader (C8): merging user inputs with service defaults into a persisted
// EstimateDocument, the save/retry protocol, and the round-trip load.
package estimate

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rshade/aws-pricing-mcp/internal/evaluator"
	"github.com/rshade/aws-pricing-mcp/internal/model"
	"github.com/rshade/aws-pricing-mcp/internal/normalize"
	"github.com/rshade/aws-pricing-mcp/internal/remote"
	"github.com/rshade/aws-pricing-mcp/internal/schema"
)

const defaultRegion = "us-east-1"

// SaveError reports that both the initial save POST and the stripped retry
// failed.
type SaveError struct {
	FirstStatus, RetryStatus int
	FirstBody, RetryBody     string
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save failed: first attempt status %d (%s), retry status %d (%s)",
		e.FirstStatus, e.FirstBody, e.RetryStatus, e.RetryBody)
}

// ResponseShapeError reports a save response missing statusCode==201, body,
// or savedKey.
type ResponseShapeError struct {
	Reason string
}

func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("unexpected save response shape: %s", e.Reason)
}

// ServiceInput is one entry of the create_estimate services argument
// (spec.md §4.9).
type ServiceInput struct {
	ServiceCode           string
	Region                string
	RegionName            string
	ServiceName           string
	Description           *string
	MonthlyCost           float64
	UpfrontCost           float64
	ConfigSummary         string
	CalculationComponents map[string]any
	TemplateID            string
	Group                 string
}

// CreateResult is what CreateEstimate hands back to the tool surface.
type CreateResult struct {
	Link     string
	Warnings []string
	Document model.EstimateDocument
}

type saveEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type savedKeyBody struct {
	SavedKey string `json:"savedKey"`
}

// Assembler wires C1/C3/C4/C5/C6 together to build and persist an
// EstimateDocument.
type Assembler struct {
	definitions *remote.DefinitionStore
	eval        *evaluator.Evaluator
	fetcher     *remote.Fetcher
	saveURL     string
	logger      zerolog.Logger
}

// NewAssembler creates an Assembler that POSTs to saveURL.
func NewAssembler(definitions *remote.DefinitionStore, eval *evaluator.Evaluator, fetcher *remote.Fetcher, saveURL string, logger zerolog.Logger) *Assembler {
	return &Assembler{definitions: definitions, eval: eval, fetcher: fetcher, saveURL: saveURL, logger: logger}
}

// CreateEstimate implements spec.md §4.7.
func (a *Assembler) CreateEstimate(ctx context.Context, name string, services []ServiceInput) (*CreateResult, error) {
	doc := model.EstimateDocument{
		Name:     name,
		Services: make(map[string]model.ServiceEntry, len(services)),
		Groups:   make(map[string]model.GroupEntry),
		Support:  map[string]any{},
		MetaData: model.MetaData{
			Locale:    "en_US",
			Currency:  "USD",
			CreatedOn: time.Now().UTC().Format(time.RFC3339),
			Source:    "calculator-platform",
		},
	}

	groupIDs := make(map[string]string)
	var orderedGroups []string

	for _, svc := range services {
		key := fmt.Sprintf("%s-%s", svc.ServiceCode, uuid.NewString())
		entry := a.buildServiceEntry(ctx, svc)
		doc.Services[key] = entry

		if svc.Group == "" {
			continue
		}
		id, ok := groupIDs[svc.Group]
		if !ok {
			id = "group-" + uuid.NewString()
			groupIDs[svc.Group] = id
			orderedGroups = append(orderedGroups, id)
			doc.Groups[id] = model.GroupEntry{Name: svc.Group}
		}
		g := doc.Groups[id]
		g.Services = append(g.Services, key)
		doc.Groups[id] = g
	}

	doc.TotalCost = sumServiceCosts(doc.Services)
	doc.GroupSubtotal = doc.TotalCost

	savedKey, warnings, err := a.save(ctx, &doc)
	if err != nil {
		return nil, err
	}

	return &CreateResult{
		Link:     fmt.Sprintf("https://calculator.aws/#/estimate?id=%s", savedKey),
		Warnings: warnings,
		Document: doc,
	}, nil
}

func (a *Assembler) buildServiceEntry(ctx context.Context, svc ServiceInput) model.ServiceEntry {
	region := svc.Region
	if region == "" {
		region = defaultRegion
	}
	regionName := svc.RegionName
	if regionName == "" {
		regionName = model.RegionDisplayName(region)
	}

	def, err := a.definitions.Get(ctx, svc.ServiceCode)
	if err != nil {
		a.logger.Warn().Str("serviceCode", svc.ServiceCode).Err(err).Msg("definition fetch failed; assembling with caller-supplied values only")
		return model.ServiceEntry{
			ServiceCode:           svc.ServiceCode,
			EstimateFor:           svc.ServiceCode,
			Region:                region,
			RegionName:            regionName,
			Description:           svc.Description,
			CalculationComponents: normalize.BuildCalcComponents(nil, svc.CalculationComponents),
			ServiceCost:           model.ServiceCost{Monthly: svc.MonthlyCost, Upfront: svc.UpfrontCost},
			ServiceName:           svc.ServiceName,
			ConfigSummary:         svc.ConfigSummary,
			TemplateID:            svc.TemplateID,
		}
	}

	fields := schema.ExtractInputs(def)
	calc := normalize.BuildCalcComponents(fields, svc.CalculationComponents)

	estimateFor := def.EstimateFor
	if estimateFor == "" {
		estimateFor = svc.ServiceCode
	}
	templateID := svc.TemplateID
	if templateID == "" && len(def.Templates) > 0 {
		templateID = def.Templates[0].ID
	}
	serviceName := svc.ServiceName
	if serviceName == "" {
		serviceName = def.ServiceName
	}

	subEntries := a.buildSubServiceEntries(ctx, def, region, regionName)

	monthly, upfront := svc.MonthlyCost, svc.UpfrontCost
	if monthly == 0 {
		cost, err := a.eval.ComputeServiceCost(ctx, def, calc, regionName)
		if err != nil {
			a.logger.Warn().Str("serviceCode", svc.ServiceCode).Err(err).Msg("auto cost calculation failed; service treated as zero-cost")
		} else {
			monthly, upfront = cost.Monthly, cost.Upfront
		}
	}

	return model.ServiceEntry{
		Version:               def.Version,
		ServiceCode:           svc.ServiceCode,
		EstimateFor:           estimateFor,
		Region:                region,
		RegionName:            regionName,
		Description:           svc.Description,
		CalculationComponents: calc,
		ServiceCost:           model.ServiceCost{Monthly: monthly, Upfront: upfront},
		ServiceName:           serviceName,
		ConfigSummary:         svc.ConfigSummary,
		TemplateID:            templateID,
		SubServices:           subEntries,
	}
}

func (a *Assembler) buildSubServiceEntries(ctx context.Context, def *model.ServiceDefinition, region, regionName string) []model.ServiceEntry {
	if len(def.SubServices) == 0 {
		return nil
	}
	entries := make([]model.ServiceEntry, 0, len(def.SubServices))
	for _, sub := range def.SubServices {
		subDef, err := a.definitions.Get(ctx, sub.ServiceCode)
		if err != nil {
			a.logger.Warn().Str("serviceCode", sub.ServiceCode).Err(err).Msg("sub-service definition fetch failed; omitted from estimate")
			continue
		}
		subFields := schema.ExtractInputs(subDef)
		entries = append(entries, model.ServiceEntry{
			Version:               subDef.Version,
			ServiceCode:           sub.ServiceCode,
			EstimateFor:           subDef.EstimateFor,
			Region:                region,
			RegionName:            regionName,
			CalculationComponents: normalize.BuildCalcComponents(subFields, nil),
			ServiceCost:           model.ServiceCost{},
			ServiceName:           subDef.ServiceName,
		})
	}
	return entries
}

func sumServiceCosts(services map[string]model.ServiceEntry) model.ServiceCost {
	var total model.ServiceCost
	for _, e := range services {
		total.Monthly += e.ServiceCost.Monthly
		total.Upfront += e.ServiceCost.Upfront
	}
	return total
}

// save posts doc, retrying once with calculationComponents stripped on a
// non-2xx response (spec.md §4.7 step 5/6).
func (a *Assembler) save(ctx context.Context, doc *model.EstimateDocument) (string, []string, error) {
	status, body, err := a.fetcher.PostJSON(ctx, a.saveURL, doc, nil)
	if err == nil && status >= 200 && status < 300 {
		savedKey, shapeErr := parseSavedKey(body)
		if shapeErr != nil {
			return "", nil, shapeErr
		}
		return savedKey, nil, nil
	}

	firstStatus, firstBody := status, string(body)

	stripped, names := stripCalculationComponents(doc)
	retryStatus, retryBody, retryErr := a.fetcher.PostJSON(ctx, a.saveURL, stripped, nil)
	if retryErr != nil || retryStatus < 200 || retryStatus >= 300 {
		return "", nil, &SaveError{
			FirstStatus: firstStatus, FirstBody: truncate(firstBody, 500),
			RetryStatus: retryStatus, RetryBody: truncate(string(retryBody), 500),
		}
	}

	savedKey, shapeErr := parseSavedKey(retryBody)
	if shapeErr != nil {
		return "", nil, shapeErr
	}

	warnings := []string{
		fmt.Sprintf("services stripped of calculationComponents after a save failure (status %d): %v; re-fetch their schema before editing", firstStatus, names),
		fmt.Sprintf("original error: %s", truncate(firstBody, 500)),
	}
	return savedKey, warnings, nil
}

func parseSavedKey(body []byte) (string, error) {
	var env saveEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &ResponseShapeError{Reason: "response body is not the {statusCode, body} envelope"}
	}
	if env.StatusCode != 201 {
		return "", &ResponseShapeError{Reason: fmt.Sprintf("statusCode %d != 201", env.StatusCode)}
	}
	if env.Body == "" {
		return "", &ResponseShapeError{Reason: "missing body string"}
	}
	var inner savedKeyBody
	if err := json.Unmarshal([]byte(env.Body), &inner); err != nil || inner.SavedKey == "" {
		return "", &ResponseShapeError{Reason: "body does not contain savedKey"}
	}
	return inner.SavedKey, nil
}

func stripCalculationComponents(doc *model.EstimateDocument) (model.EstimateDocument, []string) {
	stripped := *doc
	stripped.Services = make(map[string]model.ServiceEntry, len(doc.Services))
	var names []string
	for key, entry := range doc.Services {
		e := entry
		e.CalculationComponents = nil
		if len(e.SubServices) > 0 {
			subs := make([]model.ServiceEntry, len(e.SubServices))
			for i, sub := range e.SubServices {
				sub.CalculationComponents = nil
				subs[i] = sub
			}
			e.SubServices = subs
		}
		stripped.Services[key] = e
		names = append(names, entry.ServiceName)
	}
	return stripped, names
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
