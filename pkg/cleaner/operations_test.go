package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/David-Botos/pathprep/pkg/model"
)

func TestParseYear(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int64
		ok    bool
	}{
		{"A.2015", 2015, true},
		{"2015", 2015, true},
		{"02015", 2015, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"20X5", 0, false},
		{"19", 0, false},
		{"0999", 0, false},
		{"anno 2019 ", 0, false},
		{nil, 0, false},
		{int64(2018), 2018, true},
		{2015.0, 2015, true},
		{2015.5, 0, false},
		{"è2015", 2015, true},
	}
	for _, tt := range tests {
		got, ok := ParseYear(tt.input)
		assert.Equal(t, tt.want, got, "ParseYear(%#v)", tt.input)
		assert.Equal(t, tt.ok, ok, "ParseYear(%#v)", tt.input)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{" Ciclabile! ", "ciclabile "},
		{"Ciclabile! ", "ciclabile "},
		{"Pista - Ciclabile", "pista - ciclabile"},
		{"Borgo Panigale/Reno", "borgo panigale reno"},
		{"Santo  Stefano", "santo  stefano"},
		{"Città", "citt "},
		{"S.Donato-S.Vitale", "s.donato-s.vitale"},
		{"!!", "  "},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.input), "NormalizeText(%q)", tt.input)
	}
}

func TestConcatType(t *testing.T) {
	assert.Equal(t, "Pista - Ciclabile", concatType("Pista", "Ciclabile"))
	assert.Equal(t, "Pista - 2", concatType("Pista", int64(2)))
	assert.Nil(t, concatType("Pista", nil))
	assert.Nil(t, concatType(nil, "Ciclabile"))
}

func TestDiscardReason(t *testing.T) {
	assert.Equal(t, "", discardReason(model.Row{ColType: "a", ColYearOfData: "2015"}))
	assert.Equal(t, model.ReasonNullType, discardReason(model.Row{ColYearOfData: "2015"}))
	assert.Equal(t, model.ReasonNullYear, discardReason(model.Row{ColType: "a", ColYearOfData: nil}))
	assert.Equal(t, model.ReasonNullTypeAndYear, discardReason(model.Row{}))
}

func TestRowIdentifier(t *testing.T) {
	assert.Equal(t, "P1", rowIdentifier(model.Row{ColCode: "P1"}, 4))
	assert.Equal(t, "42", rowIdentifier(model.Row{"codice": int64(42)}, 4))
	assert.Equal(t, "row:4", rowIdentifier(model.Row{ColCode: nil}, 4))
}
