package estimate

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/goccy/go-json"
	"github.com/rshade/aws-pricing-mcp/internal/model"
	"github.com/rshade/aws-pricing-mcp/internal/remote"
)

// NotFoundError reports a load response that was XML (or otherwise not the
// expected JSON document) — spec.md §4.8/§7.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("estimate %q not found", e.ID)
}

var (
	idInFragment = regexp.MustCompile(`id=([A-Za-z0-9-]+)`)
	bareID       = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	anyID        = regexp.MustCompile(`[A-Za-z0-9-]+`)
)

// extractID pulls the id token out of either a bare id or a URL fragment
// containing "id=<token>" (spec.md §4.8, §8 invariant).
func extractID(input string) string {
	if m := idInFragment.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if bareID.MatchString(input) {
		return input
	}
	return anyID.FindString(input)
}

// ServiceRow is one per-service line of a load summary.
type ServiceRow struct {
	Name          string
	Region        string
	MonthlyCost   float64
	UpfrontCost   float64
	HasComponents bool
	TemplateID    string
	Status        string // "editable", "missing templateId", or "no config data"
}

// Summary is the human-readable projection of a loaded EstimateDocument.
type Summary struct {
	Name      string
	TotalCost model.ServiceCost
	CreatedOn string
	Services  []ServiceRow
}

// LoadResult carries both the human summary and the full document, per
// spec.md §4.8 ("Emit both a human summary and the full document").
type LoadResult struct {
	Summary  Summary
	Document model.EstimateDocument
}

// Loader fetches and projects a stored estimate (C8).
type Loader struct {
	fetcher         *remote.Fetcher
	loadURLTemplate string // one %s placeholder for the id.
}

// NewLoader creates a Loader that fetches from fmt.Sprintf(loadURLTemplate, id).
func NewLoader(fetcher *remote.Fetcher, loadURLTemplate string) *Loader {
	return &Loader{fetcher: fetcher, loadURLTemplate: loadURLTemplate}
}

// LoadEstimate implements spec.md §4.8.
func (l *Loader) LoadEstimate(ctx context.Context, rawID string) (*LoadResult, error) {
	id := extractID(rawID)
	if id == "" {
		return nil, &NotFoundError{ID: rawID}
	}

	url := fmt.Sprintf(l.loadURLTemplate, id)
	_, body, err := l.fetcher.GetRaw(ctx, url)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return nil, &NotFoundError{ID: id}
	}

	var doc model.EstimateDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, &NotFoundError{ID: id}
	}

	return &LoadResult{Summary: buildSummary(doc), Document: doc}, nil
}

func buildSummary(doc model.EstimateDocument) Summary {
	keys := make([]string, 0, len(doc.Services))
	for key := range doc.Services {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]ServiceRow, 0, len(keys))
	for _, key := range keys {
		entry := doc.Services[key]
		hasComponents := len(entry.CalculationComponents) > 0
		status := "no config data"
		switch {
		case hasComponents && entry.TemplateID != "":
			status = "editable"
		case hasComponents:
			status = "missing templateId"
		}
		rows = append(rows, ServiceRow{
			Name:          entry.ServiceName,
			Region:        entry.RegionName,
			MonthlyCost:   entry.ServiceCost.Monthly,
			UpfrontCost:   entry.ServiceCost.Upfront,
			HasComponents: hasComponents,
			TemplateID:    entry.TemplateID,
			Status:        status,
		})
	}

	return Summary{
		Name:      doc.Name,
		TotalCost: doc.TotalCost,
		CreatedOn: doc.MetaData.CreatedOn,
		Services:  rows,
	}
}
