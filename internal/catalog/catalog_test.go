package catalog

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

const fixture = `{
  "awsServices": [
    {"name": "AWS Lambda ", "serviceCode": "lambda", "slug": "lambda", "regions": ["us-east-1","eu-west-1"], "searchKeywords": ["serverless","functions"]},
    {"name": "Amazon S3", "serviceCode": "s3", "slug": "s3", "regions": ["us-east-1"], "searchKeywords": ["storage","bucket"]},
    {"name": "Amazon EC2", "serviceCode": "ec2", "slug": "ec2", "regions": ["us-east-1","us-west-2"], "searchKeywords": ["compute","instance"]}
  ]
}`

func newTestIndex(t *testing.T) *Index {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fixture))
	}))
	t.Cleanup(srv.Close)
	f := remote.New(srv.Client(), zerolog.Nop())
	return New(f, srv.URL)
}

func TestSearchMatchesNameServiceCodeAndKeywords(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Search(context.Background(), "serverless")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "lambda", results[0].ServiceCode)
	assert.Equal(t, "AWS Lambda", results[0].Name, "name must be trimmed")
	assert.Equal(t, 2, results[0].RegionCount)
}

func TestSearchIsCaseInsensitiveAndPreservesOrder(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Search(context.Background(), "E")
	require.NoError(t, err)
	// Each service's name, code or keywords contain "e"/"E" ("serverless",
	// "bucket", "EC2").
	require.Len(t, results, 3)
	assert.Equal(t, []string{"lambda", "s3", "ec2"}, serviceCodes(results))
}

func TestSearchNoMatch(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Search(context.Background(), "kubernetes")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func serviceCodes(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ServiceCode
	}
	return out
}
