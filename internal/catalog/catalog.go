// Package catalog implements the Catalog Index (C2): the manifest of all
// services and their search keywords, and substring search over it.
package catalog

import (
	"context"
	"strings"

	"github.com/rshade/aws-pricing-mcp/internal/remote"
)

// maxResults caps Search to the first 15 matches, manifest order preserved
// (spec.md §4.2).
const maxResults = 15

// ManifestURL is the default location of the service catalog manifest
// (spec.md §6).
const ManifestURL = "https://d1qsjq9pzbk1k6.cloudfront.net/manifest/en_US.json"

// ServiceListing is one entry of the raw manifest document.
type ServiceListing struct {
	Name           string   `json:"name"`
	ServiceCode    string   `json:"serviceCode"`
	Slug           string   `json:"slug"`
	Regions        []string `json:"regions"`
	SearchKeywords []string `json:"searchKeywords"`
}

type manifest struct {
	AWSServices []ServiceListing `json:"awsServices"`
}

// Entry is the public projection returned by Search.
type Entry struct {
	Name        string `json:"name"`
	ServiceCode string `json:"serviceCode"`
	Slug        string `json:"slug"`
	RegionCount int    `json:"regionCount"`
}

// Index wraps a Fetcher to provide catalog search over the manifest it
// lazily loads and caches.
type Index struct {
	fetcher     *remote.Fetcher
	manifestURL string
}

// New creates an Index backed by fetcher, using url as the manifest
// location (defaults to ManifestURL when empty).
func New(fetcher *remote.Fetcher, url string) *Index {
	if url == "" {
		url = ManifestURL
	}
	return &Index{fetcher: fetcher, manifestURL: url}
}

// Search performs a case-insensitive substring match against each
// service's concatenation of name, serviceCode, and searchKeywords,
// returning the first 15 matches in manifest order (spec.md §4.2).
func (i *Index) Search(ctx context.Context, query string) ([]Entry, error) {
	var m manifest
	if err := i.fetcher.Manifest(ctx, i.manifestURL, &m); err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var results []Entry
	for _, svc := range m.AWSServices {
		haystack := strings.ToLower(svc.Name + svc.ServiceCode + strings.Join(svc.SearchKeywords, " "))
		if !strings.Contains(haystack, needle) {
			continue
		}
		results = append(results, Entry{
			Name:        strings.TrimSpace(svc.Name),
			ServiceCode: svc.ServiceCode,
			Slug:        svc.Slug,
			RegionCount: len(svc.Regions),
		})
		if len(results) == maxResults {
			break
		}
	}
	return results, nil
}
