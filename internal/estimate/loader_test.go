package estimate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rshade/aws-pricing-mcp/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIDBareToken(t *testing.T) {
	assert.Equal(t, "abc-123", extractID("abc-123"))
}

func TestExtractIDFromURLFragment(t *testing.T) {
	assert.Equal(t, "abc-123", extractID("https://calculator.aws/#/estimate?id=abc-123"))
}

func TestLoadEstimateNotFoundOnXMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code></Error>`))
	}))
	defer srv.Close()

	loader := NewLoader(remote.New(srv.Client(), zerolog.Nop()), srv.URL+"/%s")
	_, err := loader.LoadEstimate(context.Background(), "abc-123")
	require.Error(t, err)
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, "abc-123", nfe.ID)
}

func TestLoadEstimateProjectsSummaryRows(t *testing.T) {
	body := `{
		"name": "my estimate",
		"services": {
			"lambda-1": {"serviceName":"AWS Lambda","regionName":"US East (N. Virginia)","serviceCost":{"monthly":11.8,"upfront":0},"calculationComponents":{"a":{"value":1}},"templateId":"t1"},
			"s3-1": {"serviceName":"Amazon S3","regionName":"US East (N. Virginia)","serviceCost":{"monthly":1371.2,"upfront":0},"calculationComponents":{"a":{"value":1}}},
			"empty-1": {"serviceName":"Empty Service","serviceCost":{"monthly":5,"upfront":0}}
		},
		"totalCost": {"monthly": 1388.0, "upfront": 0},
		"metaData": {"createdOn": "2026-01-01T00:00:00Z"}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	loader := NewLoader(remote.New(srv.Client(), zerolog.Nop()), srv.URL+"/%s")
	result, err := loader.LoadEstimate(context.Background(), "abc-123")
	require.NoError(t, err)

	assert.Equal(t, "my estimate", result.Summary.Name)
	assert.Equal(t, 1388.0, result.Summary.TotalCost.Monthly)
	require.Len(t, result.Summary.Services, 3)

	byName := map[string]ServiceRow{}
	for _, row := range result.Summary.Services {
		byName[row.Name] = row
	}
	assert.Equal(t, "editable", byName["AWS Lambda"].Status)
	assert.Equal(t, "missing templateId", byName["Amazon S3"].Status)
	assert.Equal(t, "no config data", byName["Empty Service"].Status)
}
