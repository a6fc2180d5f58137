package catalog

import (
	"github.com/pkg/errors"
)

// RowState is the edit lifecycle of one product row
type RowState int

const (
	Viewing RowState = iota
	Editing
	Saving
)

func (s RowState) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON payloads
func (s RowState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RowEvent drives a row from one state to the next
type RowEvent int

const (
	EventEdit RowEvent = iota
	EventCancel
	EventSave
	EventSettle
)

var rowTransitions = map[RowState]map[RowEvent]RowState{
	Viewing: {EventEdit: Editing, EventSave: Saving},
	Editing: {EventCancel: Viewing, EventSave: Saving},
	Saving:  {EventSettle: Viewing},
}

// Next returns the state reached from s on ev
func (s RowState) Next(ev RowEvent) (RowState, error) {
	if next, ok := rowTransitions[s][ev]; ok {
		return next, nil
	}
	return s, errors.Wrapf(ErrIllegalTransition, "%s on event %d", s, ev)
}
