package pipeline

import (
	"runtime"
	"sync"

	"github.com/inodb/vcf-dpfilter/internal/depth"
	"github.com/inodb/vcf-dpfilter/internal/vcf"
)

// WorkItem holds one input line ready for evaluation.
type WorkItem struct {
	Seq        int
	LineNumber int
	Line       string
}

// WorkResult holds the filter decision for a single line.
type WorkResult struct {
	Seq        int
	LineNumber int
	Line       string
	Header     bool
	Verdict    depth.Verdict
}

// evaluate classifies a line and runs the filter on data lines.
func evaluate(eval Evaluator, item WorkItem) WorkResult {
	r := WorkResult{Seq: item.Seq, LineNumber: item.LineNumber, Line: item.Line}
	if vcf.IsHeader(item.Line) {
		r.Header = true
		return r
	}
	r.Verdict = eval.Evaluate(item.Line)
	return r
}

// ParallelEvaluate runs eval over items on workers goroutines (NumCPU when
// workers <= 0). Results arrive in completion order; pass the channel to
// OrderedCollect to restore input order. The channel closes once items is
// closed and drained.
func ParallelEvaluate(eval Evaluator, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- evaluate(eval, item)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect hands results to emit in Seq order, holding back any line
// whose predecessors are still being evaluated. If emit fails, the rest of
// results is discarded so the workers can exit, and the error is returned.
func OrderedCollect(results <-chan WorkResult, emit func(WorkResult) error) error {
	held := make(map[int]WorkResult)
	next := 0

	for r := range results {
		held[r.Seq] = r

		for ready, ok := held[next]; ok; ready, ok = held[next] {
			delete(held, next)
			next++
			if err := emit(ready); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
