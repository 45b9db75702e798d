package pipeline

// Handoff is a single-slot blocking link between two stages. Put blocks while
// the slot is occupied, so a fast producer can never run more than one item
// ahead of its consumer.
//
// Closing the handoff is the shutdown sentinel. Take still returns any item
// already in the slot before it reports the sentinel. Closing twice, or
// putting after close, panics.
type Handoff struct {
	slot chan *WorkItem
}

// NewHandoff creates an empty handoff
func NewHandoff() *Handoff {
	return &Handoff{slot: make(chan *WorkItem, 1)}
}

// Put hands item downstream, waiting for the slot to free up
func (h *Handoff) Put(item *WorkItem) {
	if item == nil {
		panic("pipeline: nil item put on handoff")
	}
	h.slot <- item
}

// Take waits for the next item. ok is false once the sentinel arrives.
func (h *Handoff) Take() (item *WorkItem, ok bool) {
	item, ok = <-h.slot
	return item, ok
}

// Close emits the sentinel
func (h *Handoff) Close() {
	close(h.slot)
}

// Len reports how many items are waiting in the slot (0 or 1)
func (h *Handoff) Len() int {
	return len(h.slot)
}
