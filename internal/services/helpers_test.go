package services

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"
)

// fakeCaller stands in for the Gateway: it serves canned JSON bodies by path.
type fakeCaller struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []fakeCall
}

type fakeCall struct {
	path   string
	params url.Values
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{bodies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeCaller) Call(_ context.Context, path string, params url.Values, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{path: path, params: params})
	err := f.errs[path]
	body, ok := f.bodies[path]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if !ok {
		return &UpstreamError{Path: path, Status: 404}
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeCaller) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.path == path {
			n++
		}
	}
	return n
}

func (f *fakeCaller) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
