package engine

import (
	"context"
	"sync"
)

// BatchResult pairs one batch question with its outcome. Index preserves
// the position of the question in the input slice.
type BatchResult struct {
	Index    int       `json:"index"`
	Question string    `json:"question"`
	Response *Response `json:"response,omitempty"`
	Err      error     `json:"-"`
}

// AskBatch runs Ask over the questions concurrently. The schema model is
// immutable, so workers share it without locking. Results come back in
// input order; a failed question carries its error and never stops the
// others.
func (e *Engine) AskBatch(ctx context.Context, questions []string, workers int) []BatchResult {
	if len(questions) == 0 {
		return []BatchResult{}
	}

	if workers <= 0 {
		workers = 4
	}

	if workers > len(questions) {
		workers = len(questions)
	}

	taskChan := make(chan int, len(questions))
	results := make([]BatchResult, len(questions))

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				select {
				case idx, ok := <-taskChan:
					if !ok {
						return
					}

					response, err := e.Ask(ctx, questions[idx])
					results[idx] = BatchResult{
						Index:    idx,
						Question: questions[idx],
						Response: response,
						Err:      err,
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for idx := range questions {
		taskChan <- idx
	}

	close(taskChan)
	wg.Wait()

	// Questions skipped by cancellation still get a terminal state. A
	// processed slot always carries a response or an error, so an untouched
	// zero value means the worker never reached it.
	if err := ctx.Err(); err != nil {
		for idx := range results {
			if results[idx].Response == nil && results[idx].Err == nil {
				results[idx] = BatchResult{Index: idx, Question: questions[idx], Err: err}
			}
		}
	}

	return results
}
