// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package daemon

import "sync"

// lifecycleComponent is the lifecycle part of a component.
type lifecycleComponent struct {
	terminateChannel chan struct{}
	terminateOnce    *sync.Once
}

func newLifecycleComponent() lifecycleComponent {
	return lifecycleComponent{
		terminateChannel: make(chan struct{}),
		terminateOnce:    &sync.Once{},
	}
}

// Terminated returns a channel closed when the daemon needs to
// terminate.
func (c *lifecycleComponent) Terminated() <-chan struct{} {
	return c.terminateChannel
}

// Terminate requests termination of the daemon. It can be called
// several times.
func (c *lifecycleComponent) Terminate() {
	c.terminateOnce.Do(func() { close(c.terminateChannel) })
}
