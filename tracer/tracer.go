// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package tracer keeps an in-memory trail of parser milestones for debugging
// a single extraction.
package tracer

import (
	"fmt"
	"io"
	"sync"
)

var (
	mu       sync.Mutex
	enabled  bool
	messages []string
)

// Enable turns recording on or off. Recording is off by default so long
// documents do not accumulate messages nobody reads.
func Enable(on bool) {
	mu.Lock()
	enabled = on
	mu.Unlock()
}

// Log just adds a message to the trace log.
func Log(msg string) {
	mu.Lock()
	defer mu.Unlock()
	if enabled {
		messages = append(messages, msg)
	}
}

// Messages returns a copy of the recorded messages.
func Messages() []string {
	mu.Lock()
	defer mu.Unlock()
	return append([]string(nil), messages...)
}

// Reset drops the recorded messages.
func Reset() {
	mu.Lock()
	messages = nil
	mu.Unlock()
}

// Flush writes the accumulated trace log to w, one message per line, and resets it.
func Flush(w io.Writer) error {
	mu.Lock()
	msgs := messages
	messages = nil
	mu.Unlock()
	for _, msg := range msgs {
		if _, err := fmt.Fprintln(w, msg); err != nil {
			return err
		}
	}
	return nil
}
