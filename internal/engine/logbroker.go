package engine

import "sync"

// subscriberBufferSize is the channel buffer for each log subscriber.
// Lines are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// LogBroker fans out the log lines of each run to its subscribers.
// It is safe for concurrent use.
//
// Finished runs are remembered so that a subscriber arriving after a run
// ended receives a closed channel instead of blocking forever.
type LogBroker struct {
	mu       sync.Mutex
	runs     map[string]*runLog
	finished map[string]struct{}
}

type runLog struct {
	subs   map[int]chan string
	nextID int
}

// NewLogBroker creates a new log broker.
func NewLogBroker() *LogBroker {
	return &LogBroker{
		runs:     make(map[string]*runLog),
		finished: make(map[string]struct{}),
	}
}

// Subscribe returns a channel that receives the log lines of run runID and an
// unsubscribe function. If the run has already finished the channel is
// closed.
func (b *LogBroker) Subscribe(runID string) (<-chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan string, subscriberBufferSize)
	if _, done := b.finished[runID]; done {
		close(ch)
		return ch, func() {}
	}

	rl, ok := b.runs[runID]
	if !ok {
		rl = &runLog{subs: make(map[int]chan string)}
		b.runs[runID] = rl
	}
	id := rl.nextID
	rl.nextID++
	rl.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(rl.subs, id)
	}
}

// Publish sends a log line to every subscriber of run runID. Lines are
// dropped for subscribers whose buffers are full so a slow reader never
// stalls the process.
func (b *LogBroker) Publish(runID, line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rl, ok := b.runs[runID]
	if !ok {
		return
	}
	for _, ch := range rl.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Close ends the log stream of run runID. Subscriber channels are closed and
// later Subscribe calls get a closed channel.
func (b *LogBroker) Close(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.finished[runID] = struct{}{}
	rl, ok := b.runs[runID]
	if !ok {
		return
	}
	delete(b.runs, runID)
	for _, ch := range rl.subs {
		close(ch)
	}
}
