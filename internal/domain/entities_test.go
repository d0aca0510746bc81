package domain

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestQuad_Validate(t *testing.T) {
	tests := []struct {
		name   string
		quad   Quad
		reason string
	}{
		{name: "valid", quad: Quad{Type: QuadTypeTwoSeat, DailyRate: 100, Plate: "BBB-002"}},
		{name: "free quad is allowed", quad: Quad{Type: QuadTypeSingleSeat, Plate: "X"}},
		{name: "empty plate", quad: Quad{Type: QuadTypeSingleSeat, Plate: " "}, reason: ReasonEmptyPlate},
		{name: "negative rate", quad: Quad{Type: QuadTypeSingleSeat, Plate: "X", DailyRate: -1}, reason: ReasonNegativeDailyRate},
		{name: "unknown type", quad: Quad{Type: "QUAD", Plate: "X"}, reason: ReasonInvalidQuadType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quad.Validate()
			if tt.reason == "" {
				require.NoError(t, err)
				return
			}
			require.Equal(t, tt.reason, ValidationReason(err))
		})
	}
}

func TestParseQuadType(t *testing.T) {
	for raw, want := range map[string]QuadType{
		"SINGLE_SEAT": QuadTypeSingleSeat,
		"uniplaza":    QuadTypeSingleSeat,
		"two_seat":    QuadTypeTwoSeat,
		"BIPLAZA":     QuadTypeTwoSeat,
	} {
		got, err := ParseQuadType(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}

	_, err := ParseQuadType("tandem")
	require.True(t, errors.Is(err, ErrValidation))
	require.Less(t, QuadTypeSingleSeat.Rank(), QuadTypeTwoSeat.Rank())
}

func TestReservation_Validate(t *testing.T) {
	ok := Reservation{CustomerName: "Cliente A", PickupTime: day0, ReturnTime: day0.Add(time.Hour), TotalPrice: 80}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.ReturnTime = day0.Add(-time.Hour)
	require.Equal(t, ReasonInvalidDateRange, ValidationReason(bad.Validate()))

	bad = ok
	bad.TotalPrice = -1
	require.Equal(t, ReasonNegativeTotalPrice, ValidationReason(bad.Validate()))
}

func TestReservation_Normalize(t *testing.T) {
	local := time.FixedZone("CET", 3600)
	r := Reservation{PickupTime: time.Date(2024, 5, 1, 10, 0, 0, 123456789, local)}.Normalize()

	require.Equal(t, time.UTC, r.PickupTime.Location())
	require.Equal(t, 123000000, r.PickupTime.Nanosecond())
	require.True(t, r.ReturnTime.IsZero())
}

func TestLink_Validate(t *testing.T) {
	require.NoError(t, Link{HelmetCount: 0}.Validate())
	require.Equal(t, ReasonNegativeHelmets, ValidationReason(Link{HelmetCount: -2}.Validate()))
}

func TestParseLegacyDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{raw: "", want: time.Time{}},
		{raw: "1714557600000", want: time.UnixMilli(1714557600000).UTC()},
		{raw: "2024-05-01", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "01/05/2024", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseLegacyDate(tt.raw)
		require.NoError(t, err, tt.raw)
		require.True(t, tt.want.Equal(got), "%q: got %v", tt.raw, got)
	}

	_, err := ParseLegacyDate("May 1st")
	require.True(t, errors.Is(err, ErrValidation))
}

func TestErrorsMatchThroughWrapping(t *testing.T) {
	err := errors.Wrap(NewValidationError(ReasonNoQuadsSelected), "create reservation")
	require.True(t, errors.Is(err, ErrValidation))
	require.False(t, errors.Is(err, ErrNotFound))
	require.Equal(t, ReasonNoQuadsSelected, ValidationReason(err))

	require.True(t, IsNotFound(errors.Wrapf(ErrNotFound, "quad %d", 7)))
	require.Empty(t, ValidationReason(ErrConflict))
}
