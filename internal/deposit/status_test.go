package deposit_test

import (
	"testing"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/deposit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		code  uint64
		label string
	}{
		{0, "Active"},
		{1, "Withdrawn"},
		{2, "AutoRenewed"},
		{3, "ManualRenewed"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := deposit.Label(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.label, got)
			assert.Equal(t, tt.label, deposit.Status(tt.code).String())
		})
	}
}

func TestLabelUnknown(t *testing.T) {
	for _, code := range []uint64{4, 255, 1 << 40} {
		_, err := deposit.Label(code)
		assert.ErrorIs(t, err, deposit.ErrUnknownStatus)
	}
	assert.Equal(t, "Status(9)", deposit.Status(9).String())
	assert.False(t, deposit.Status(4).Valid())
}

func TestAllInCodeOrder(t *testing.T) {
	all := deposit.All()
	require.Len(t, all, 4)
	for i, s := range all {
		assert.Equal(t, deposit.Status(i), s)
		assert.True(t, s.Valid())
	}
}

func TestParseStatus(t *testing.T) {
	s, err := deposit.ParseStatus("autorenewed")
	require.NoError(t, err)
	assert.Equal(t, deposit.AutoRenewed, s)

	s, err = deposit.ParseStatus(" 1 ")
	require.NoError(t, err)
	assert.Equal(t, deposit.Withdrawn, s)

	_, err = deposit.ParseStatus("7")
	assert.ErrorIs(t, err, deposit.ErrUnknownStatus)

	_, err = deposit.ParseStatus("Closed")
	assert.ErrorIs(t, err, deposit.ErrUnknownStatus)
}

func TestSchedule(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := deposit.Schedule{Start: start, Tenor: 30 * 24 * time.Hour, Grace: 3 * 24 * time.Hour}

	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), s.Maturity())
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), s.GraceEnds())

	assert.False(t, s.Matured(start.Add(time.Hour)))
	assert.True(t, s.Matured(s.Maturity()))
	assert.True(t, s.InGrace(s.Maturity().Add(time.Hour)))
	assert.False(t, s.InGrace(s.GraceEnds()))
}
