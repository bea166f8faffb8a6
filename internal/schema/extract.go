// Package schema implements the Schema Extractor (C3): depth-first
// traversal of a service definition's template tree into a flat,
// portable list of input fields.
package schema

import (
	"context"
	"fmt"

	"github.com/rshade/aws-pricing-mcp/internal/model"
	"github.com/rshade/aws-pricing-mcp/internal/remote"
)

// sizedTypes attach a unit conversion table and are extracted with
// defaultUnit/unitOptions/format, per spec.md §4.3.
var sizedTypes = map[string]string{
	"fileSize":  "%s (GB/MB/KB/TB)",
	"frequency": "%s (per second/minute/hour/day/week/month/year)",
}

// ExtractInputs walks every template's every card's inputSection.components
// depth-first, emitting an InputField for every node that carries an id.
// Recursion continues into a node's children regardless of whether that
// node itself was emitted.
func ExtractInputs(def *model.ServiceDefinition) []model.InputField {
	var fields []model.InputField
	for _, tpl := range def.Templates {
		for _, card := range tpl.Cards {
			walkComponent(card.InputSection, &fields)
		}
	}
	return fields
}

func walkComponent(c model.Component, out *[]model.InputField) {
	if c.ID != "" {
		*out = append(*out, buildInputField(c))
	}
	for _, child := range c.Components {
		walkComponent(child, out)
	}
}

func buildInputField(c model.Component) model.InputField {
	fieldType := c.SubType
	if fieldType == "" {
		fieldType = c.Type
	}

	field := model.InputField{
		ID:          c.ID,
		Label:       c.Label,
		Type:        fieldType,
		Description: c.Description,
		Unit:        c.Unit,
		Options:     normalizeOptions(c.Options),
	}

	switch fieldType {
	case "pricingStrategy":
		field.Default = pricingStrategyDefault(c)
		field.RadioGroups = c.RadioGroups
	case "radioTiles":
		field.Default = c.DefaultSelection
		field.Options = radioOptionsAsOptions(c.RadioOptions)
	default:
		field.Default = defaultValue(c)
	}

	if _, ok := sizedTypes[fieldType]; ok {
		field.UnitOptions = normalizeOptions(c.UnitOptions)
		field.DefaultUnit = defaultUnit(c)
		field.Format = fmt.Sprintf(sizedTypes[fieldType], c.Label)
	}

	return field
}

// defaultValue implements "default <- defaultValue if defined, else value,
// else null" (spec.md §4.3).
func defaultValue(c model.Component) any {
	if c.DefaultValue != nil {
		return c.DefaultValue
	}
	if c.Value != nil {
		return c.Value
	}
	return nil
}

// defaultUnit is the sized-type field's starting unit: the first unit
// option's value, else the fixed unit attribute.
func defaultUnit(c model.Component) string {
	if len(c.UnitOptions) > 0 {
		if s, ok := c.UnitOptions[0].Value.(string); ok {
			return s
		}
	}
	return c.Unit
}

// pricingStrategyDefault builds the {groupKey: groupDefaultOption} object
// for a pricingStrategy component.
func pricingStrategyDefault(c model.Component) map[string]any {
	out := make(map[string]any, len(c.RadioGroups))
	for _, g := range c.RadioGroups {
		out[g.Key] = g.Default
	}
	return out
}

// normalizeOptions projects a component's raw options into {label, value},
// falling back the label to the value's string form when absent.
func normalizeOptions(opts []model.Option) []model.Option {
	if opts == nil {
		return nil
	}
	out := make([]model.Option, len(opts))
	for i, o := range opts {
		label := o.Label
		if label == "" {
			if s, ok := o.Value.(string); ok {
				label = s
			} else {
				label = fmt.Sprintf("%v", o.Value)
			}
		}
		out[i] = model.Option{Label: label, Value: o.Value}
	}
	return out
}

func radioOptionsAsOptions(opts []model.RadioOption) []model.Option {
	if opts == nil {
		return nil
	}
	out := make([]model.Option, len(opts))
	for i, o := range opts {
		out[i] = model.Option{Label: o.Label, Value: o.Value}
	}
	return out
}

// ServiceSchema is GetSchema's return value: a service's extracted inputs
// plus the definition metadata a caller needs to configure and evaluate it.
type ServiceSchema struct {
	ServiceName string             `json:"serviceName"`
	Version     string             `json:"version"`
	Layout      string             `json:"layout"`
	Templates   []TemplateSummary  `json:"templates"`
	Inputs      []model.InputField `json:"inputs"`
	SubServices []ServiceSchema    `json:"subServices,omitempty"`
	Note        string             `json:"note,omitempty"`
}

// TemplateSummary is the id/title projection of one Template.
type TemplateSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Extractor fetches definitions (via a DefinitionStore) and extracts their
// schema, recursing into sub-services.
type Extractor struct {
	definitions *remote.DefinitionStore
}

// New creates an Extractor backed by the given definition store.
func New(definitions *remote.DefinitionStore) *Extractor {
	return &Extractor{definitions: definitions}
}

// GetSchema fetches serviceCode's definition and returns its extracted
// schema, including a best-effort recursive schema for every declared
// sub-service (spec.md §4.3).
func (e *Extractor) GetSchema(ctx context.Context, serviceCode string) (*ServiceSchema, error) {
	def, err := e.definitions.Get(ctx, serviceCode)
	if err != nil {
		return nil, err
	}
	return e.buildSchema(ctx, def), nil
}

func (e *Extractor) buildSchema(ctx context.Context, def *model.ServiceDefinition) *ServiceSchema {
	inputs := ExtractInputs(def)

	schema := &ServiceSchema{
		ServiceName: def.ServiceName,
		Version:     def.Version,
		Layout:      def.Layout,
		Inputs:      inputs,
	}
	for _, tpl := range def.Templates {
		schema.Templates = append(schema.Templates, TemplateSummary{ID: tpl.ID, Title: tpl.Title})
	}

	if def.Layout == "loader" && len(inputs) == 0 {
		schema.Note = "this service configures dynamically; no static inputs were found in its definition"
	}

	for _, sub := range def.SubServices {
		subDef, err := e.definitions.Get(ctx, sub.ServiceCode)
		if err != nil {
			schema.SubServices = append(schema.SubServices, ServiceSchema{
				ServiceName: sub.ServiceCode,
				Inputs:      []model.InputField{},
				Note:        fmt.Sprintf("failed to fetch sub-service definition: %v", err),
			})
			continue
		}
		schema.SubServices = append(schema.SubServices, *e.buildSchema(ctx, subDef))
	}

	return schema
}
