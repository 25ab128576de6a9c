// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package twowire

import (
	"sync"
	"time"

	"periph.io/x/host/v3"
	"periph.io/x/host/v3/cpu"
)

// Timer is the delay source the bus toggles against.
type Timer interface {
	// Init prepares the underlying counter. It must be idempotent.
	Init() error
	// Delay blocks for d.
	Delay(d time.Duration)
}

// HostTimer busy-waits on the host CPU. Its Init loads the periph host
// drivers exactly once for the whole process.
var HostTimer Timer = &hostTimer{}

type hostTimer struct {
	once sync.Once
	err  error
}

func (h *hostTimer) Init() error {
	h.once.Do(func() {
		_, h.err = host.Init()
	})
	return h.err
}

// Delay spins instead of sleeping; the scheduler cannot sleep for 2µs.
func (h *hostTimer) Delay(d time.Duration) {
	cpu.Nanospin(d)
}
