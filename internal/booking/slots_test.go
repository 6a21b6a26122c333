package booking

import (
    "testing"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
    cases := []struct {
        in      string
        want    int
        wantErr bool
    }{
        {"09:00", 540, false},
        {"09:00:00", 540, false},
        {"00:00", 0, false},
        {"23:59", 1439, false},
        {"24:00", 0, true},
        {"12:60", 0, true},
        {"12", 0, true},
        {"ab:cd", 0, true},
        {"", 0, true},
    }
    for _, tc := range cases {
        got, err := ParseTimeOfDay(tc.in)
        if tc.wantErr {
            assert.Error(t, err, "input %q", tc.in)
            continue
        }
        require.NoError(t, err, "input %q", tc.in)
        assert.Equal(t, tc.want, got, "input %q", tc.in)
    }
}

func TestCalculateSlotsExactAmount(t *testing.T) {
    price := decimal.RequireFromString("10.00")

    got, err := CalculateSlots("09:00", "10:00", 30, price)
    require.NoError(t, err)
    assert.Equal(t, 2, got.Slots)
    assert.True(t, got.Amount.Equal(decimal.RequireFromString("20.00")),
        "amount = %s", got.Amount)
}

func TestCalculateSlotsFloorsPartialSlot(t *testing.T) {
    price := decimal.RequireFromString("12.50")

    // 50 minutes at 30-minute slots covers exactly one slot.
    got, err := CalculateSlots("09:00", "09:50", 30, price)
    require.NoError(t, err)
    assert.Equal(t, 1, got.Slots)
    assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.50")))
}

func TestCalculateSlotsTooShort(t *testing.T) {
    _, err := CalculateSlots("09:00", "09:20", 30, decimal.New(10, 0))
    require.Error(t, err)
    assert.Equal(t, KindDurationTooShort, KindOf(err))
}

func TestCalculateSlotsInvalidSlotDuration(t *testing.T) {
    _, err := CalculateSlots("09:00", "10:00", 0, decimal.New(10, 0))
    require.Error(t, err)
    assert.Equal(t, KindResourceUnavailable, KindOf(err))
}

func TestCalculateSlotsNoFloatDrift(t *testing.T) {
    // A price that misbehaves in binary floating point.
    price := decimal.RequireFromString("0.10")
    want := decimal.RequireFromString("1.60")

    for i := 0; i < 1000; i++ {
        got, err := CalculateSlots("08:00", "16:00", 30, price)
        require.NoError(t, err)
        require.Equal(t, 16, got.Slots)
        require.True(t, got.Amount.Equal(want), "iteration %d: %s", i, got.Amount)
    }
}
