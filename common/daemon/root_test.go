// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package daemon

import (
	"errors"
	"testing"
	"time"

	"gopkg.in/tomb.v2"

	"netflowd/common/helpers"
	"netflowd/common/reporter"
)

func isTerminated(c Component) bool {
	select {
	case <-c.Terminated():
		return true
	default:
		return false
	}
}

func TestTerminate(t *testing.T) {
	r := reporter.NewMock(t)
	c, err := New(r)
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	helpers.StartStop(t, c)

	if isTerminated(c) {
		t.Fatal("Terminated() was closed while we didn't request termination")
	}
	c.Terminate()
	if !isTerminated(c) {
		t.Fatal("Terminated() wasn't closed while we requested it to be")
	}
	c.Terminate() // Can be called several times.
}

func TestStop(t *testing.T) {
	r := reporter.NewMock(t)
	c, err := New(r)
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error:\n%+v", err)
	}
	if isTerminated(c) {
		t.Fatal("Terminated() was closed while we didn't request termination")
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error:\n%+v", err)
	}
	if !isTerminated(c) {
		t.Fatal("Terminated() wasn't closed after Stop()")
	}
}

func TestTombTracking(t *testing.T) {
	var tomb tomb.Tomb
	r := reporter.NewMock(t)
	c, err := New(r)
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	c.Track(&tomb, "tomb")
	helpers.StartStop(t, c)

	ch := make(chan struct{})
	tomb.Go(func() error {
		<-ch
		return errors.New("crashing")
	})
	time.Sleep(20 * time.Millisecond)
	if isTerminated(c) {
		t.Fatal("Terminated() was closed while the tomb is alive")
	}

	close(ch)
	tomb.Wait()
	select {
	case <-c.Terminated():
	case <-time.After(time.Second):
		t.Fatal("Terminated() was not closed while tomb is dead")
	}
}

func TestMock(t *testing.T) {
	c := NewMock(t)
	var tomb tomb.Tomb
	c.Track(&tomb, "ignored")
	helpers.StartStop(t, c)
	if isTerminated(c) {
		t.Fatal("Terminated() was closed on a fresh mock")
	}
	c.Terminate()
	if !isTerminated(c) {
		t.Fatal("Terminated() wasn't closed on mock")
	}
}
