// Package plan derives the array-job address space from the catalog.
package plan

import "fmt"

// ArrayPlan is the array index range and concurrency cap for one
// submission: one task per input file, no batching.
type ArrayPlan struct {
	TaskCount      int
	ConcurrencyCap int
}

// New builds the plan for taskCount files. The cap never exceeds the
// number of tasks that exist. taskCount >= 1 is guaranteed upstream
// by catalog admission control.
func New(taskCount, maxConcurrent int) ArrayPlan {
	limit := maxConcurrent
	if taskCount < limit {
		limit = taskCount
	}
	return ArrayPlan{TaskCount: taskCount, ConcurrencyCap: limit}
}

// Directive returns the SBATCH array range, e.g. "0-4%5".
func (p ArrayPlan) Directive() string {
	return fmt.Sprintf("0-%d%%%d", p.TaskCount-1, p.ConcurrencyCap)
}
