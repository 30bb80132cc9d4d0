package service

import "github.com/iliyamo/roadside-assist/internal/model"

// transitions lists the legal next states.  Terminal states have no entry.
var transitions = map[model.Status][]model.Status{
	model.StatusPending:    {model.StatusAccepted, model.StatusCancelled},
	model.StatusAccepted:   {model.StatusInProgress, model.StatusCancelled},
	model.StatusInProgress: {model.StatusCompleted, model.StatusCancelled},
}

// CanMove reports whether from -> to is an edge of the lifecycle.
func CanMove(from, to model.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the states reachable from s in one step.
func NextStatuses(s model.Status) []model.Status {
	out := make([]model.Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}
