package schema

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rshade/aws-pricing-mcp/internal/model"
	"github.com/rshade/aws-pricing-mcp/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lambdaDefinition() *model.ServiceDefinition {
	return &model.ServiceDefinition{
		ServiceName: "AWS Lambda",
		Version:     "1",
		Templates: []model.Template{
			{
				ID:    "default",
				Title: "Provisioned",
				Cards: []model.Card{
					{
						InputSection: model.Component{
							Type: "group",
							Components: []model.Component{
								{
									ID:           "numberOfRequests",
									Type:         "numericInput",
									Label:        "Number of requests",
									DefaultValue: 1000000.0,
								},
								{
									ID:   "storageClass",
									Type: "dropdown",
									Options: []model.Option{
										{Value: "s3Glacier"},
										{Label: "Standard", Value: "standard"},
									},
								},
								{
									ID:      "payloadSize",
									SubType: "fileSize",
									Label:   "Payload size",
									Unit:    "MB",
									UnitOptions: []model.Option{
										{Value: "KB"}, {Value: "MB"}, {Value: "GB"},
									},
								},
								{
									ID:               "tier",
									SubType:          "radioTiles",
									DefaultSelection: "on-demand",
									RadioOptions: []model.RadioOption{
										{Label: "On-Demand", Value: "on-demand", Description: "pay per use"},
										{Label: "Provisioned", Value: "provisioned", Description: "reserved"},
									},
								},
								{
									ID:      "billing",
									SubType: "pricingStrategy",
									RadioGroups: []model.RadioGroup{
										{Key: "compute", Default: "onDemand", Options: []model.Option{{Value: "onDemand"}, {Value: "reserved"}}},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestExtractInputsEmitsEveryIDBearingNode(t *testing.T) {
	fields := ExtractInputs(lambdaDefinition())
	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.ID
	}
	assert.Equal(t, []string{"numberOfRequests", "storageClass", "payloadSize", "tier", "billing"}, ids)
}

func TestExtractInputsTypePrecedence(t *testing.T) {
	fields := ExtractInputs(lambdaDefinition())
	byID := indexFields(fields)
	assert.Equal(t, "numericInput", byID["numberOfRequests"].Type)
	assert.Equal(t, "fileSize", byID["payloadSize"].Type, "subType must win over type")
}

func TestExtractInputsDefaultPrecedence(t *testing.T) {
	fields := ExtractInputs(lambdaDefinition())
	byID := indexFields(fields)
	assert.Equal(t, 1000000.0, byID["numberOfRequests"].Default)
}

func TestExtractInputsOptionLabelFallback(t *testing.T) {
	fields := ExtractInputs(lambdaDefinition())
	byID := indexFields(fields)
	opts := byID["storageClass"].Options
	require.Len(t, opts, 2)
	assert.Equal(t, "s3Glacier", opts[0].Label, "label falls back to the value when absent")
	assert.Equal(t, "Standard", opts[1].Label)
}

func TestExtractInputsSizedFieldUnitDefaults(t *testing.T) {
	fields := ExtractInputs(lambdaDefinition())
	byID := indexFields(fields)
	payload := byID["payloadSize"]
	assert.Equal(t, "KB", payload.DefaultUnit, "defaultUnit is the first unit option's value")
	assert.NotEmpty(t, payload.Format)
}

func TestExtractInputsRadioTiles(t *testing.T) {
	fields := ExtractInputs(lambdaDefinition())
	byID := indexFields(fields)
	tier := byID["tier"]
	assert.Equal(t, "on-demand", tier.Default)
	require.Len(t, tier.Options, 2)
	assert.Equal(t, "On-Demand", tier.Options[0].Label)
}

func TestExtractInputsPricingStrategyDefault(t *testing.T) {
	fields := ExtractInputs(lambdaDefinition())
	byID := indexFields(fields)
	billing := byID["billing"]
	assert.Equal(t, map[string]any{"compute": "onDemand"}, billing.Default)
	require.Len(t, billing.RadioGroups, 1)
}

func TestExtractInputsEmptySchema(t *testing.T) {
	def := &model.ServiceDefinition{Templates: []model.Template{{Cards: []model.Card{}}}}
	assert.Empty(t, ExtractInputs(def))
}

func TestGetSchemaRecursesIntoSubServices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/parent/en_US.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"serviceName":"Parent","subServices":[{"serviceCode":"child"}],"templates":[{"id":"t","cards":[]}]}`))
	})
	mux.HandleFunc("/data/child/en_US.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"serviceName":"Child","templates":[{"id":"t","cards":[]}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fetcher := remote.New(srv.Client(), zerolog.Nop())
	store := remote.NewDefinitionStore(fetcher, srv.URL+"/data/%s/en_US.json")
	extractor := New(store)

	result, err := extractor.GetSchema(context.Background(), "parent")
	require.NoError(t, err)
	require.Len(t, result.SubServices, 1)
	assert.Equal(t, "Child", result.SubServices[0].ServiceName)
}

func TestGetSchemaSubServiceFetchFailureYieldsPlaceholder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/parent/en_US.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"serviceName":"Parent","subServices":[{"serviceCode":"missing"}],"templates":[{"id":"t","cards":[]}]}`))
	})
	mux.HandleFunc("/data/missing/en_US.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fetcher := remote.New(srv.Client(), zerolog.Nop())
	store := remote.NewDefinitionStore(fetcher, srv.URL+"/data/%s/en_US.json")
	extractor := New(store)

	result, err := extractor.GetSchema(context.Background(), "parent")
	require.NoError(t, err)
	require.Len(t, result.SubServices, 1)
	assert.Empty(t, result.SubServices[0].Inputs)
	assert.NotEmpty(t, result.SubServices[0].Note)
}

func TestGetSchemaLoaderLayoutAdvisory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/dynamic/en_US.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"serviceName":"Dynamic","layout":"loader","templates":[{"id":"t","cards":[]}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fetcher := remote.New(srv.Client(), zerolog.Nop())
	store := remote.NewDefinitionStore(fetcher, srv.URL+"/data/%s/en_US.json")
	extractor := New(store)

	result, err := extractor.GetSchema(context.Background(), "dynamic")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Note)
}

func indexFields(fields []model.InputField) map[string]model.InputField {
	out := make(map[string]model.InputField, len(fields))
	for _, f := range fields {
		out[f.ID] = f
	}
	return out
}
