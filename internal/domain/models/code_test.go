package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		code   string
		want   int64
		wantOK bool
	}{
		{code: "PRB1011", want: 1011, wantOK: true},
		{code: "PRB9", want: 9, wantOK: true},
		{code: "PRB", wantOK: false},
		{code: "PRB-12", wantOK: false},
		{code: "PRB12a", wantOK: false},
		{code: "prb12", wantOK: false},
		{code: "3f1c9a4e-1b7d-4c1e-9a57-0f0d3b8f6d21", wantOK: false},
		{code: "PRB99999999999999999999999", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := ParseCode(CanonicalPrefix, tt.code)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, IsCanonicalCode(tt.code))
		})
	}
}

func TestFormatCode(t *testing.T) {
	assert.Equal(t, "PRB1011", FormatCode(CanonicalPrefix, 1011))
}
