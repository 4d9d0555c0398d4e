package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBool(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"Bool", true, true},
		{"IntOne", 1, true},
		{"IntZero", 0, false},
		{"JSONFloat", float64(1), true},
		{"JSONFloatZero", float64(0), false},
		{"JSONNumber", json.Number("1"), true},
		{"StringOne", "1", true},
		{"StringTrue", "TRUE", true},
		{"StringYes", " yes ", true},
		{"StringZero", "0", false},
		{"Bytes", []byte("true"), true},
		{"Nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToBool(tt.in))
		})
	}
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 42, ToInt("42"))
	assert.Equal(t, 42, ToInt(" 42 "))
	assert.Equal(t, 42, ToInt(float64(42)))
	assert.Equal(t, 42, ToInt(json.Number("42")))
	assert.Equal(t, 1, ToInt(true))
	assert.Equal(t, 0, ToInt("not a number"))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "1", ToString(float64(1)))
	assert.Equal(t, "1.5", ToString(1.5))
	assert.Equal(t, "a,b", ToString([]string{"a", "b"}))
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "7", ToString(7))
}
