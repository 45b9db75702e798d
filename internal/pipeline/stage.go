package pipeline

import (
	"log/slog"
)

// processFunc transforms one item in place. It must not fail: missing data is
// recorded on the item and left for downstream stages to skip.
type processFunc func(item *WorkItem)

// stage is one worker in the chain
type stage struct {
	name    string
	in      *Handoff
	out     *Handoff
	process processFunc
	counter *stageCounter
	logger  *slog.Logger
}

// run takes from in, processes and puts to out until the sentinel arrives,
// then forwards the sentinel. A stage without out is the end of the chain and
// releases every item it finishes.
func (s *stage) run() {
	defer func() {
		if s.out != nil {
			s.out.Close()
		}
		s.logger.Debug("stage stopped")
	}()

	for {
		item, ok := s.in.Take()
		if !ok {
			return
		}
		s.process(item)
		s.counter.processed.Add(1)

		if s.out == nil {
			item.Close()
			continue
		}
		s.out.Put(item)
	}
}
