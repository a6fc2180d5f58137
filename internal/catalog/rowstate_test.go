package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowState_Transitions(t *testing.T) {
	tests := []struct {
		from RowState
		ev   RowEvent
		want RowState
		ok   bool
	}{
		{Viewing, EventEdit, Editing, true},
		{Viewing, EventSave, Saving, true},
		{Editing, EventSave, Saving, true},
		{Editing, EventCancel, Viewing, true},
		{Saving, EventSettle, Viewing, true},
		{Viewing, EventSettle, Viewing, false},
		{Viewing, EventCancel, Viewing, false},
		{Editing, EventEdit, Editing, false},
		{Saving, EventSave, Saving, false},
		{Saving, EventEdit, Saving, false},
		{Saving, EventCancel, Saving, false},
	}
	for _, tt := range tests {
		got, err := tt.from.Next(tt.ev)
		if tt.ok {
			require.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrIllegalTransition)
		}
		assert.Equal(t, tt.want, got)
	}
}

func TestRowState_Text(t *testing.T) {
	b, err := Saving.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "saving", string(b))
	assert.Equal(t, "unknown", RowState(9).String())
}
