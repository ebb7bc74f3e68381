// Package pipeline prepares a build: templates are loaded and content is
// scanned concurrently, and every child-task failure of a stage is
// aggregated into one report instead of failing on the first.
package pipeline

import "sync"

// Result is the tagged outcome of one concurrent unit of pipeline work.
type Result struct {
	Key   string
	Value any
	Err   error
}

// joinAll starts one goroutine per task and waits for all of them. Results
// come back in task order. Siblings are never cancelled when one fails, so
// the aggregated report is complete rather than first-failure-only.
func joinAll(tasks []func() Result) []Result {
	results := make([]Result, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func() {
			defer wg.Done()
			results[i] = task()
		}()
	}
	wg.Wait()
	return results
}

// failures collects the errors of failed results, preserving task order.
func failures(results []Result) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
