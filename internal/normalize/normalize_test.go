package normalize

import (
	"testing"

	"github.com/rshade/aws-pricing-mcp/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeValueFileSizeEquivalence(t *testing.T) {
	gb := NormalizeValue("fileSize", model.NewComponentValue(1.0, "GB"))
	mb := NormalizeValue("fileSize", model.NewComponentValue(1024.0, "MB"))
	tb := NormalizeValue("fileSize", model.NewComponentValue(1.0/1024.0, "TB"))

	assert.InDelta(t, gb, mb, 1e-9)
	assert.InDelta(t, gb, tb, 1e-9)
}

func TestNormalizeValueFrequencyPerMonth(t *testing.T) {
	perDay := NormalizeValue("frequency", model.NewComponentValue(1.0, "per day"))
	assert.InDelta(t, 30.0, perDay, 1e-9)

	perYear := NormalizeValue("frequency", model.NewComponentValue(12.0, "per year"))
	assert.InDelta(t, 1.0, perYear, 1e-9)
}

func TestNormalizeValueMissingOrNonNumericIsZero(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeValue("fileSize", model.ComponentValue{}))
	assert.Equal(t, 0.0, NormalizeValue("numericInput", model.NewComponentValue("not-a-number", "")))
}

func TestNormalizeValuePlainNumericPassthrough(t *testing.T) {
	v := NormalizeValue("numericInput", model.NewComponentValue(42.0, ""))
	assert.Equal(t, 42.0, v)
}

var dropdownField = model.InputField{
	ID:   "storageClass",
	Type: "dropdown",
	Options: []model.Option{
		{Label: "S3 Glacier", Value: "s3Glacier"},
		{Label: "Standard", Value: "standard"},
	},
}

func TestResolveValueLabelAndValueBothResolve(t *testing.T) {
	assert.Equal(t, "s3Glacier", ResolveValue(dropdownField, "S3 Glacier"))
	assert.Equal(t, "s3Glacier", ResolveValue(dropdownField, "s3Glacier"))
}

func TestResolveValueIdentityForUnknownString(t *testing.T) {
	assert.Equal(t, "nonexistent", ResolveValue(dropdownField, "nonexistent"))
}

func TestBuildCalcComponentsEmptyUserInputsUsesDefaults(t *testing.T) {
	fields := []model.InputField{
		{ID: "a", Default: 5.0},
		{ID: "b", Default: nil},
		{ID: "c", Default: ""},
		{ID: "d", Default: "x"},
	}
	got := BuildCalcComponents(fields, nil)
	assert.Len(t, got, 2)
	v, ok := got["a"].Value()
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
	_, ok = got["b"]
	assert.False(t, ok)
	_, ok = got["c"]
	assert.False(t, ok)
}

func TestBuildCalcComponentsSupersetOfDefaults(t *testing.T) {
	fields := []model.InputField{
		{ID: "a", Default: 5.0},
		{ID: "b", Default: 10.0},
	}
	defaults := BuildCalcComponents(fields, nil)
	overlaid := BuildCalcComponents(fields, map[string]any{"a": 99.0})

	bVal, ok := overlaid["b"].Value()
	assert.True(t, ok)
	defaultBVal, _ := defaults["b"].Value()
	assert.Equal(t, defaultBVal, bVal)

	aVal, _ := overlaid["a"].Value()
	assert.Equal(t, 99.0, aVal)
}

func TestBuildCalcComponentsResolvesLabelToValue(t *testing.T) {
	got := BuildCalcComponents([]model.InputField{dropdownField}, map[string]any{"storageClass": "S3 Glacier"})
	v, ok := got["storageClass"].Value()
	assert.True(t, ok)
	assert.Equal(t, "s3Glacier", v)
}

func TestBuildCalcComponentsSizedFieldGetsDefaultUnit(t *testing.T) {
	fields := []model.InputField{{ID: "size", Type: "fileSize", DefaultUnit: "GB"}}
	got := BuildCalcComponents(fields, map[string]any{"size": 42.0})
	unit, ok := got["size"].Unit()
	assert.True(t, ok)
	assert.Equal(t, "GB", unit)
}

func TestBuildCalcComponentsPricingStrategyStoredAsIs(t *testing.T) {
	fields := []model.InputField{{ID: "billing", Type: "pricingStrategy"}}
	got := BuildCalcComponents(fields, map[string]any{"billing": map[string]any{"compute": "reserved"}})
	assert.Equal(t, model.ComponentValue{"compute": "reserved"}, got["billing"])
	assert.True(t, got["billing"].IsPlainObject())
}

func TestBuildCalcComponentsUnknownKeyPreserved(t *testing.T) {
	fields := []model.InputField{{ID: "a", Default: 1.0}}
	got := BuildCalcComponents(fields, map[string]any{"mystery": "data"})
	v, ok := got["mystery"].Value()
	assert.True(t, ok)
	assert.Equal(t, "data", v)
}

func TestBuildCalcComponentsAlreadyWrappedRecord(t *testing.T) {
	fields := []model.InputField{dropdownField}
	got := BuildCalcComponents(fields, map[string]any{
		"storageClass": map[string]any{"value": "Standard", "unit": "x"},
	})
	v, ok := got["storageClass"].Value()
	assert.True(t, ok)
	assert.Equal(t, "standard", v)
	unit, _ := got["storageClass"].Unit()
	assert.Equal(t, "x", unit)
}
