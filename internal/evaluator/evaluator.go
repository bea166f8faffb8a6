// Package evaluator implements the Expression Evaluator (C6): an ordered,
// three-phase evaluator over a service definition's math-operator tree,
// producing labeled subtotals and a final cost.
package evaluator

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/rshade/aws-pricing-mcp/internal/model"
	"github.com/rshade/aws-pricing-mcp/internal/normalize"
	"github.com/rshade/aws-pricing-mcp/internal/pricingtable"
	"github.com/rshade/aws-pricing-mcp/internal/remote"
	"github.com/rshade/aws-pricing-mcp/internal/schema"
)

// Subtotal is one collected priceDisplay entry: a labeled cost contribution
// before grouping by cost type.
type Subtotal struct {
	CostType string
	Value    float64
}

// tier is one resolved pricing tier, stored under the evaluation context's
// "__tiers__<id>" auxiliary key.
type tier struct {
	Start float64
	End   float64 // math.Inf(1) when the source endOfTier was -1.
	Price float64
}

// ctxTable is the mutable, string-keyed evaluation context described in
// spec.md §4.6 and §9: component id -> Number, String, or []tier.
type ctxTable map[string]any

func (t ctxTable) float(key string) float64 {
	v, ok := t[key]
	if !ok {
		return 0
	}
	f, _ := toFloat(v)
	return f
}

func (t ctxTable) string(key string) string {
	v, ok := t[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func (t ctxTable) tiers(id string) []tier {
	v, ok := t["__tiers__"+id]
	if !ok {
		return nil
	}
	ts, _ := v.([]tier)
	return ts
}

// Evaluate runs the full three-phase algorithm over a single definition: it
// does not fetch anything and never fails — missing data degrades to zero,
// per spec.md §4.6/§7. Use ComputeServiceCost for the IO-driven, sub-service
// aware orchestration.
func Evaluate(def *model.ServiceDefinition, calc model.CalculationComponents, tables map[string]model.PricingTable) (model.ServiceCost, []Subtotal) {
	ctx := make(ctxTable)
	seed(ctx, def, calc)
	resolvePricing(ctx, def, tables)
	subtotals := evaluateMaths(ctx, def, tables)
	return totalFromSubtotals(subtotals), subtotals
}

// seed implements phase 1: every calculationComponents entry is normalized
// against its input field's type and stored under its id.
func seed(ctx ctxTable, def *model.ServiceDefinition, calc model.CalculationComponents) {
	fields := schema.ExtractInputs(def)
	types := make(map[string]string, len(fields))
	for _, f := range fields {
		types[f.ID] = f.Type
	}
	for id, raw := range calc {
		ctx[id] = normalize.NormalizeValue(types[id], raw)
	}
}

// resolvePricing implements phase 2: walks every pricing-typed component in
// the union of all templates' input sections (not math sections) and
// resolves its price/replacement/tier data into the context.
func resolvePricing(ctx ctxTable, def *model.ServiceDefinition, tables map[string]model.PricingTable) {
	for _, tpl := range def.Templates {
		for _, card := range tpl.Cards {
			walkPricingComponents(card.InputSection, ctx, tables)
		}
	}
}

func walkPricingComponents(c model.Component, ctx ctxTable, tables map[string]model.PricingTable) {
	if c.ID != "" {
		resolveOnePricingComponent(c, ctx, tables)
	}
	for _, child := range c.Components {
		walkPricingComponents(child, ctx, tables)
	}
}

func resolveOnePricingComponent(c model.Component, ctx ctxTable, tables map[string]model.PricingTable) {
	switch c.SubType {
	case "replace":
		original := ctx.string(c.OriginalID)
		ctx[c.ID] = resolveReplacement(c, original)
	case "singlePricePoint":
		ctx[c.ID] = lookupPrice(tables, c.MappingDefinitionName, meteredUnitName(c))
	case "pricingComboV2":
		unit := ""
		if len(c.Refers) > 0 {
			unit = ctx.string(c.Refers[0].VariableID)
		}
		ctx[c.ID] = lookupPrice(tables, c.MappingDefinitionName, unit)
	case "tieredPricing":
		ctx["__tiers__"+c.ID] = buildTiers(c, tables)
	}
}

func resolveReplacement(c model.Component, original string) string {
	for _, r := range c.Replacements {
		if r.OriginalString == original {
			return r.ReplaceString
		}
	}
	return ""
}

func meteredUnitName(c model.Component) string {
	if c.MeteredUnit == nil {
		return ""
	}
	return c.MeteredUnit.AllRegions
}

func lookupPrice(tables map[string]model.PricingTable, mappingName, unit string) float64 {
	table, ok := tables[mappingName]
	if !ok {
		return 0
	}
	return table[unit]
}

func buildTiers(c model.Component, tables map[string]model.PricingTable) []tier {
	if c.Tiers == nil {
		return nil
	}
	out := make([]tier, 0, len(c.Tiers.AllRegions))
	for _, spec := range c.Tiers.AllRegions {
		end := spec.EndOfTier
		if end == -1 {
			end = math.Inf(1)
		}
		out = append(out, tier{
			Start: spec.StartOfTier,
			End:   end,
			Price: lookupPrice(tables, c.MappingDefinitionName, spec.MeteredUnit),
		})
	}
	return out
}

// evaluateMaths implements phase 3: only the first template is walked;
// displayIf guards cards and individual operators.
func evaluateMaths(ctx ctxTable, def *model.ServiceDefinition, tables map[string]model.PricingTable) []Subtotal {
	if len(def.Templates) == 0 {
		return nil
	}
	var subtotals []Subtotal
	for _, card := range def.Templates[0].Cards {
		if !evalDisplayIf(card.DisplayIf, ctx, tables) {
			continue
		}
		for _, op := range card.MathsSection {
			if !evalDisplayIf(op.DisplayIf, ctx, tables) {
				continue
			}
			if s, ok := applyOperator(ctx, op); ok {
				subtotals = append(subtotals, s)
			}
		}
	}
	return subtotals
}

func totalFromSubtotals(subtotals []Subtotal) model.ServiceCost {
	var cost model.ServiceCost
	for _, s := range subtotals {
		if s.CostType == "Upfront" {
			cost.Upfront += s.Value
		} else {
			cost.Monthly += s.Value
		}
	}
	if cost.Monthly < 0 {
		cost.Monthly = 0
	}
	if cost.Upfront < 0 {
		cost.Upfront = 0
	}
	return cost
}

// Evaluator orchestrates the IO-driven side of C6: fetching pricing tables
// and, for services with sub-services, sub-definitions, summing the pure
// Evaluate result across the parent and every sub-service.
type Evaluator struct {
	definitions *remote.DefinitionStore
	pricing     *pricingtable.Loader
	logger      zerolog.Logger
}

// New creates an Evaluator.
func New(definitions *remote.DefinitionStore, pricing *pricingtable.Loader, logger zerolog.Logger) *Evaluator {
	return &Evaluator{definitions: definitions, pricing: pricing, logger: logger}
}

// ComputeServiceCost loads def's pricing tables for regionName, evaluates
// def against calc, and — for every declared sub-service — fetches its
// definition, builds its calculationComponents from its own defaults (user
// inputs are never pushed into sub-services, spec.md §4.7), loads its
// pricing, evaluates it, and adds its cost to the total.
func (e *Evaluator) ComputeServiceCost(ctx context.Context, def *model.ServiceDefinition, calc model.CalculationComponents, regionName string) (model.ServiceCost, error) {
	tables, err := e.pricing.Load(ctx, def, regionName)
	if err != nil {
		return model.ServiceCost{}, err
	}
	total, _ := Evaluate(def, calc, tables)

	for _, sub := range def.SubServices {
		subDef, err := e.definitions.Get(ctx, sub.ServiceCode)
		if err != nil {
			e.logger.Warn().Str("serviceCode", sub.ServiceCode).Err(err).Msg("sub-service definition fetch failed; contributing zero cost")
			continue
		}
		subFields := schema.ExtractInputs(subDef)
		subCalc := normalize.BuildCalcComponents(subFields, nil)
		subTables, err := e.pricing.Load(ctx, subDef, regionName)
		if err != nil {
			continue
		}
		subCost, _ := Evaluate(subDef, subCalc, subTables)
		total.Monthly += subCost.Monthly
		total.Upfront += subCost.Upfront
	}
	return total, nil
}
