// Package workflow isolates the task status machine. The default mode is
// permissive, where any declared status may replace any other;
// the edge graph is only enforced when strict mode is on,
// so call sites never change when the policy does.
package workflow

import (
	"fmt"
	"os"

	"github.com/taskdeck/taskdeck/internal/types"
)

// transitions is the strict edge graph: pending -> in_progress -> completed,
// with failed reachable from any non-terminal state.
var transitions = map[string][]string{
	types.StatusPending:    {types.StatusInProgress, types.StatusFailed},
	types.StatusInProgress: {types.StatusCompleted, types.StatusFailed},
	types.StatusCompleted:  {},
	types.StatusFailed:     {},
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status string) bool {
	return len(transitions[status]) == 0 && types.ValidStatus(status)
}

// Strict reports whether transition-graph enforcement is enabled.
func Strict() bool {
	return os.Getenv("STRICT_STATUS_FLOW") == "true"
}

// CanTransition validates a status change. Both statuses must be declared
// enum values. In permissive mode any change between declared values is
// accepted, including re-opening a terminal task; in strict mode the change
// must follow an edge of the graph.
func CanTransition(from, to string, strict bool) error {
	if !types.ValidStatus(to) {
		return fmt.Errorf("invalid status %q", to)
	}

	if !strict {
		return nil
	}

	if from == to {
		return nil
	}

	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}

	return fmt.Errorf("cannot transition from %q to %q", from, to)
}
