package remote

import (
	"context"
	"fmt"

	"github.com/rshade/aws-pricing-mcp/internal/model"
)

// DefinitionBaseURL is the default service-definition endpoint template
// (spec.md §6); "%s" is replaced with the serviceCode.
const DefinitionBaseURL = "https://d1qsjq9pzbk1k6.cloudfront.net/data/%s/en_US.json"

// DefinitionStore resolves a serviceCode to its ServiceDefinition, reusing
// Fetcher's per-URL memoization so repeated lookups of the same service
// within a process never re-fetch.
type DefinitionStore struct {
	fetcher *Fetcher
	baseURL string
}

// NewDefinitionStore creates a DefinitionStore. An empty baseURL falls back
// to DefinitionBaseURL.
func NewDefinitionStore(fetcher *Fetcher, baseURL string) *DefinitionStore {
	if baseURL == "" {
		baseURL = DefinitionBaseURL
	}
	return &DefinitionStore{fetcher: fetcher, baseURL: baseURL}
}

// Get fetches and caches the ServiceDefinition for serviceCode.
func (d *DefinitionStore) Get(ctx context.Context, serviceCode string) (*model.ServiceDefinition, error) {
	url := fmt.Sprintf(d.baseURL, serviceCode)
	var def model.ServiceDefinition
	if err := d.fetcher.Get(ctx, url, &def); err != nil {
		return nil, err
	}
	return &def, nil
}
