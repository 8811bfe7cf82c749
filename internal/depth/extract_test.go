package depth

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		sample  string
		want    int
		wantErr error
	}{
		{"GT:DP", "GT:DP", "0/1:15", 15, nil},
		{"DP in middle", "GT:AD:DP:GQ", "0/1:5,10:15:99", 15, nil},
		{"DP first", "DP:GT", "42:0/1", 42, nil},
		{"zero depth", "GT:DP", "0/1:0", 0, nil},
		{"negative depth is a value", "GT:DP", "0/1:-3", -3, nil},
		{"explicit plus sign", "GT:DP", "0/1:+7", 7, nil},
		{"duplicate DP first wins", "GT:DP:DP", "0/1:8:99", 8, nil},
		{"no DP key", "GT:AD", "0/1:5,10", 0, ErrNoDepthKey},
		{"lowercase key", "GT:dp", "0/1:15", 0, ErrNoDepthKey},
		{"empty format", "", "0/1:15", 0, ErrNoDepthKey},
		{"sample too short", "GT:AD:DP", "0/1:5,10", 0, ErrDepthMissing},
		{"genotype only", "GT:DP", "0/1", 0, ErrDepthMissing},
		{"missing value dot", "GT:DP", "0/1:.", 0, ErrInvalidDepth},
		{"empty value", "GT:DP", "0/1:", 0, ErrInvalidDepth},
		{"non-numeric", "GT:DP", "0/1:abc", 0, ErrInvalidDepth},
		{"trailing garbage", "GT:DP", "0/1:15x", 0, ErrInvalidDepth},
		{"decimal", "GT:DP", "0/1:15.0", 0, ErrInvalidDepth},
		{"leading space", "GT:DP", "0/1: 15", 0, ErrInvalidDepth},
		{"float", "GT:DP", "0/1:1.5", 0, ErrInvalidDepth},
		{"overflow", "GT:DP", "0/1:99999999999999999999999", 0, ErrInvalidDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.format, tt.sample)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_InvalidWrapsParseError(t *testing.T) {
	_, err := Extract("GT:DP", "0/1:abc")
	require.Error(t, err)

	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestDepthIndex(t *testing.T) {
	tests := []struct {
		format string
		want   int
		ok     bool
	}{
		{"GT:DP", 1, true},
		{"DP", 0, true},
		{"GT:AD:DP:GQ:PL", 2, true},
		{"GT:DP:DP", 1, true},
		{"GT", -1, false},
		{"", -1, false},
		{"GT:DPX", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, ok := DepthIndex(tt.format)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSampleDepth_NegativeIndex(t *testing.T) {
	_, err := SampleDepth("0/1:15", -1)
	assert.ErrorIs(t, err, ErrNoDepthKey)
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.NotErrorIs(t, ErrNoDepthKey, ErrDepthMissing)
	assert.NotErrorIs(t, ErrDepthMissing, ErrInvalidDepth)
	assert.NotErrorIs(t, ErrInvalidDepth, ErrNoDepthKey)
}
