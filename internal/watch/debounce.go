package watch

import "time"

// settled is sent when a path has been quiet for the settle delay. gen
// identifies the touch that armed the timer.
type settled struct {
	path string
	gen  uint64
}

type pendingPath struct {
	timer *time.Timer
	gen   uint64
}

// debouncer delays paths until they stop changing. It is owned by a single
// goroutine; only the timer callbacks run elsewhere, and they never touch
// the pending map.
type debouncer struct {
	delay   time.Duration
	done    <-chan struct{}
	ready   chan settled
	pending map[string]*pendingPath
	gen     uint64
}

func newDebouncer(delay time.Duration, done <-chan struct{}) *debouncer {
	return &debouncer{
		delay:   delay,
		done:    done,
		ready:   make(chan settled),
		pending: make(map[string]*pendingPath),
	}
}

// touch (re)starts the delay for path. A timer that already fired keeps its
// old generation, so its delivery is rejected by settle.
func (d *debouncer) touch(path string) {
	if p, ok := d.pending[path]; ok {
		p.timer.Stop()
	}

	d.gen++
	s := settled{path: path, gen: d.gen}
	d.pending[path] = &pendingPath{
		gen: s.gen,
		timer: time.AfterFunc(d.delay, func() {
			select {
			case d.ready <- s:
			case <-d.done:
			}
		}),
	}
}

// settle reports whether s is the latest touch of its path and forgets the
// path if so.
func (d *debouncer) settle(s settled) bool {
	p, ok := d.pending[s.path]
	if !ok || p.gen != s.gen {
		return false
	}
	delete(d.pending, s.path)
	return true
}

// stop cancels every pending timer
func (d *debouncer) stop() {
	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
}
