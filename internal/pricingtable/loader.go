// Package pricingtable implements the Pricing Table Loader (C5): resolving
// a service definition's mapping-definition references to per-region
// metered-unit -> price tables, fetched concurrently and cached by the
// underlying Fetcher.
package pricingtable

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rshade/aws-pricing-mcp/internal/model"
	"github.com/rshade/aws-pricing-mcp/internal/remote"
	"golang.org/x/sync/errgroup"
)

// DefaultURLTemplate is the fallback location for a mapping definition's
// price table when the service definition does not list one explicitly
// (spec.md §6).
const DefaultURLTemplate = "https://calculator.aws/pricing/2.0/meteredUnitMaps/%s/USD/current/%s.json"

// mappingDocument is the shape of one fetched mapping-definition document:
// a region display name keyed map of metered-unit -> price-as-string.
type mappingDocument struct {
	Regions map[string]map[string]string `json:"regions"`
}

// Loader resolves and fetches pricing tables via a shared Fetcher.
type Loader struct {
	fetcher *remote.Fetcher
}

// New creates a Loader backed by fetcher.
func New(fetcher *remote.Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load fetches every mapping definition referenced by def's pricing
// components, projected to that mapping's price table for regionName.
// Unresolved names and fetch failures yield an empty table for that name
// rather than an error (spec.md §4.5).
func (l *Loader) Load(ctx context.Context, def *model.ServiceDefinition, regionName string) (map[string]model.PricingTable, error) {
	names := CollectMappingNames(def)
	if len(names) == 0 {
		return map[string]model.PricingTable{}, nil
	}

	urls := make(map[string]string, len(names))
	for _, name := range names {
		urls[name] = resolveURL(def, name)
	}

	results := make(map[string]model.PricingTable, len(names))
	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		url := urls[name]
		g.Go(func() error {
			table := fetchTable(gCtx, l.fetcher, url, regionName)
			mu.Lock()
			results[name] = table
			mu.Unlock()
			return nil
		})
	}
	// Fetch errors never fail the group: fetchTable degrades every failure,
	// a cancelled context included, to an empty table, so Wait returns nil.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func fetchTable(ctx context.Context, fetcher *remote.Fetcher, url, regionName string) model.PricingTable {
	var doc mappingDocument
	if err := fetcher.Get(ctx, url, &doc); err != nil {
		return model.PricingTable{}
	}
	region, ok := doc.Regions[regionName]
	if !ok {
		return model.PricingTable{}
	}
	table := make(model.PricingTable, len(region))
	for unit, priceStr := range region {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			price = 0
		}
		table[unit] = price
	}
	return table
}

func resolveURL(def *model.ServiceDefinition, name string) string {
	for _, md := range def.MappingDefinitions {
		if md.Name == name {
			return strings.ReplaceAll(md.URL, "[currency]", "USD")
		}
	}
	return fmt.Sprintf(DefaultURLTemplate, name, name)
}

// CollectMappingNames pre-scans every template's cards for pricing
// components and returns the distinct mappingDefinitionName values they
// reference.
func CollectMappingNames(def *model.ServiceDefinition) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, tpl := range def.Templates {
		for _, card := range tpl.Cards {
			walkForMappingNames(card.InputSection, add)
		}
	}
	return names
}

func walkForMappingNames(c model.Component, add func(string)) {
	switch c.SubType {
	case "singlePricePoint", "pricingComboV2", "tieredPricing":
		add(c.MappingDefinitionName)
	}
	for _, child := range c.Components {
		walkForMappingNames(child, add)
	}
}
