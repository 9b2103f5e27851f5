// Package steps provides durable, memoized execution of named units of work.
// A step that already completed for a given execution returns its recorded
// result instead of re-executing, which keeps run replays from repeating
// external calls.
package steps

import (
	"github.com/RachidJedata/GraphOps/pkg/protocol"
)

// Factory produces a step runner scoped to one execution. Step names are
// unique within an execution; two executions never share memoized results.
type Factory interface {
	ForExecution(executionID string) protocol.StepRunner
}
