package planner

import "github.com/stepwise-db/stepwise/internal/source"

// Pending computes the ordered list of not-yet-applied scripts: scripts in
// filename sort order, minus any whose identifier is in applied. Pure and
// deterministic; an empty input yields an empty plan, never an error.
func Pending(scripts []source.Script, applied map[string]struct{}) []source.Script {
	pending := make([]source.Script, 0, len(scripts))
	for _, script := range scripts {
		if _, ok := applied[script.Identifier]; ok {
			continue
		}
		pending = append(pending, script)
	}
	return pending
}
