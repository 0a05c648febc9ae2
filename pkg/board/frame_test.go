package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	ts := time.Unix(0, 1234567890123*1000)

	tests := []struct {
		name    string
		line    string
		want    Frame
		wantErr bool
	}{
		{
			name: "valid line - all present",
			line: "$1234567890123,2048,4,6,9,11,1",
			want: Frame{Timestamp: ts, Gas: 2048, SoapCM: [3]int32{4, 6, 9}, Tissue: [2]bool{true, true}, Water: true},
		},
		{
			name: "valid line - echo timeout and empty tissue",
			line: "$1234567890123,1900,4,17,-1,10,1",
			want: Frame{Timestamp: ts, Gas: 1900, SoapCM: [3]int32{4, 17, -1}, Tissue: [2]bool{true, false}, Water: true},
		},
		{
			name: "valid line - water detected",
			line: "$1234567890123,4095,0,0,0,00,0",
			want: Frame{Timestamp: ts, Gas: 4095},
		},
		{name: "invalid - missing prefix", line: "1234567890123,2048,4,6,9,11,1", wantErr: true},
		{name: "invalid - wrong number of fields", line: "$1234567890123,2048,4,6,9,11", wantErr: true},
		{name: "invalid - too many fields", line: "$1234567890123,2048,4,6,9,11,1,extra", wantErr: true},
		{name: "invalid - non-numeric timestamp", line: "$abc,2048,4,6,9,11,1", wantErr: true},
		{name: "invalid - gas out of range", line: "$1234567890123,5000,4,6,9,11,1", wantErr: true},
		{name: "invalid - soap out of range", line: "$1234567890123,2048,4,-7,9,11,1", wantErr: true},
		{name: "invalid - non-numeric soap", line: "$1234567890123,2048,4,x,9,11,1", wantErr: true},
		{name: "invalid - tissue wrong length", line: "$1234567890123,2048,4,6,9,1,1", wantErr: true},
		{name: "invalid - garbled tissue digit", line: "$1234567890123,2048,4,6,9,x1,1", wantErr: true},
		{name: "invalid - tissue digit out of range", line: "$1234567890123,2048,4,6,9,12,1", wantErr: true},
		{name: "invalid - water state", line: "$1234567890123,2048,4,6,9,11,2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Timestamp.UnixNano(), got.Timestamp.UnixNano())
			assert.Equal(t, tt.want.Gas, got.Gas)
			assert.Equal(t, tt.want.SoapCM, got.SoapCM)
			assert.Equal(t, tt.want.Tissue, got.Tissue)
			assert.Equal(t, tt.want.Water, got.Water)
		})
	}
}

func TestLedCommand(t *testing.T) {
	assert.Equal(t, "L1\n", string(ledCommand(true)))
	assert.Equal(t, "L0\n", string(ledCommand(false)))
}
