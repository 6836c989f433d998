package netctl

import (
	"context"
	"sync"
	"time"

	"rwchcd-core/hwerr"
	"rwchcd-core/iotypes"
)

// MemoryController is a reference ControllerServer backed by
// in-process channel tables. It exists for tests and for standalone
// demos that want a netctl backend without any actual remote device.
type MemoryController struct {
	mu    sync.RWMutex
	temps []iotypes.Temperature
	sws   []bool
	fail  map[int]bool // channel -> force Read/Write failure
}

func NewMemoryController(tempChannels, switchChannels int) *MemoryController {
	return &MemoryController{
		temps: make([]iotypes.Temperature, tempChannels),
		sws:   make([]bool, switchChannels),
		fail:  map[int]bool{},
	}
}

func (c *MemoryController) SetTemperature(ch int, v iotypes.Temperature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.temps[ch] = v
}

func (c *MemoryController) SetSwitch(ch int, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sws[ch] = v
}

func (c *MemoryController) Fail(ch int, fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[ch] = fail
}

func (c *MemoryController) Read(ctx context.Context, req *ReadRequest) (*ReadResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.fail[req.Chan] {
		return &ReadResponse{Err: string(hwerr.EGeneric)}, nil
	}
	resp := &ReadResponse{TimestampUnixNano: time.Now().UnixNano()}
	switch req.Kind {
	case "temperature":
		if req.Chan < 0 || req.Chan >= len(c.temps) {
			return &ReadResponse{Err: string(hwerr.EInvalid)}, nil
		}
		t := c.temps[req.Chan]
		resp.Temperature = &TemperatureReading{State: t.String(), Value: t.Value}
	case "switch", "relay":
		if req.Chan < 0 || req.Chan >= len(c.sws) {
			return &ReadResponse{Err: string(hwerr.EInvalid)}, nil
		}
		v := c.sws[req.Chan]
		resp.Switch = &v
	default:
		return &ReadResponse{Err: string(hwerr.EInvalid)}, nil
	}
	return resp, nil
}

func (c *MemoryController) Write(ctx context.Context, req *WriteRequest) (*WriteResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail[req.Chan] {
		return &WriteResponse{Err: string(hwerr.EGeneric)}, nil
	}
	// Reuse the switch table as the relay state store: both are a
	// single bool per channel, and this reference controller has no
	// separate relay concept of its own.
	if req.Chan < 0 || req.Chan >= len(c.sws) {
		return &WriteResponse{Err: string(hwerr.EInvalid)}, nil
	}
	c.sws[req.Chan] = req.State
	return &WriteResponse{}, nil
}
