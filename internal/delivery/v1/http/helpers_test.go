package http

import (
	"testing"
	"time"

	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceToPaise(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr error
	}{
		{name: "rupees and paise", in: "599.99", want: 59999},
		{name: "whole rupees", in: "600", want: 60000},
		{name: "single decimal place", in: "599.9", want: 59990},
		{name: "zero", in: "0", want: 0},
		{name: "empty", in: "", wantErr: e.ErrInvalidPrice},
		{name: "garbage", in: "six hundred", wantErr: e.ErrInvalidPrice},
		{name: "negative", in: "-1.00", wantErr: e.ErrInvalidPrice},
		{name: "three decimal places", in: "599.999", wantErr: e.ErrPricePrecision},
		{name: "at limit", in: "1000000000", want: 100_000_000_000},
		{name: "over limit", in: "1000000000.01", wantErr: e.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePriceToPaise(tt.in)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPaise(t *testing.T) {
	assert.Equal(t, "599.99", formatPaise(59999))
	assert.Equal(t, "600.00", formatPaise(60000))
	assert.Equal(t, "0.05", formatPaise(5))
	assert.Equal(t, "0.00", formatPaise(0))
}

func TestParseTimeParam(t *testing.T) {
	got, err := parseTimeParam("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseTimeParam("2026-08-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseTimeParam("2026-08-15T10:30:00Z")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Hour())

	_, err = parseTimeParam("15/08/2026")
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrStatusBadRequest)
}

func TestParseIDParam(t *testing.T) {
	id, err := parseIDParam("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := parseIDParam(bad)
		assert.ErrorIs(t, err, e.ErrStatusBadRequest, bad)
	}
}
