package field

import (
	"testing"

	"github.com/go-registration-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseOptions_Empty(t *testing.T) {
	assert.Nil(t, ParseOptions(""))
	assert.Nil(t, ParseOptions("   "))
}

func TestParseOptions_JSON(t *testing.T) {
	opts := ParseOptions(`[{"value":"s","label":"Small"},{"value":"m","label":"Medium"}]`)
	assert.Equal(t, []domain.Option{
		{Value: "s", Label: "Small"},
		{Value: "m", Label: "Medium"},
	}, opts)
}

func TestParseOptions_CSV(t *testing.T) {
	opts := ParseOptions("red, green ,blue")
	assert.Equal(t, []domain.Option{
		{Value: "red", Label: "red"},
		{Value: "green", Label: "green"},
		{Value: "blue", Label: "blue"},
	}, opts)
}

func TestParseOptions_KeyLabelPairs(t *testing.T) {
	opts := ParseOptions("s:Small, m:Medium, l:Large")
	assert.Equal(t, []domain.Option{
		{Value: "s", Label: "Small"},
		{Value: "m", Label: "Medium"},
		{Value: "l", Label: "Large"},
	}, opts)
}

func TestParseOptions_MixedAndMessy(t *testing.T) {
	opts := ParseOptions("a:Alpha,, bare ,")
	assert.Equal(t, []domain.Option{
		{Value: "a", Label: "Alpha"},
		{Value: "bare", Label: "bare"},
	}, opts)
}
