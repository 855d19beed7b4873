package reconcile

import (
	"github.com/evanofslack/zone-update/internal/source"
	"github.com/evanofslack/zone-update/internal/state"
)

type Plan struct {
	Create  []source.Record
	Update  []source.Record
	Delete  []source.Record
	Skipped []Skip
}

func (p Plan) IsEmpty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Skip is a change the engine declined to make.
type Skip struct {
	Record source.Record
	Reason string
}

type Results struct {
	RunID    string
	Created  []source.Record
	Updated  []source.Record
	Deleted  []source.Record
	Skipped  []Skip
	Failures []OperationResult
}

type OperationResult struct {
	Record source.Record
	Op     string
	Error  string
}

func keyOf(r source.Record) state.Key {
	return state.Key{Host: r.Host, Type: r.Type}
}
