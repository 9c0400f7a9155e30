/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package s2

import (
	"fmt"
	"time"
)

// Event types reported by the stream Writer for each compression step.
const (
	EvtBlockFlushed   = 0
	EvtStreamClosed   = 1
	EvtIndexWritten   = 2
	EvtPaddingWritten = 3
)

// Event reports progress from a stream Writer: a block was flushed, the
// stream was closed, or a trailer (index/padding) was written.
type Event struct {
	eventType  int
	blockID    int
	uncompSize int64
	compSize   int64
	eventTime  time.Time
}

// NewEvent creates an Event carrying the given block's uncompressed and
// compressed sizes.
func NewEvent(evtType, blockID int, uncompSize, compSize int64) *Event {
	return &Event{eventType: evtType, blockID: blockID, uncompSize: uncompSize, compSize: compSize, eventTime: time.Now()}
}

// Type returns the event type, one of the Evt* constants.
func (e *Event) Type() int {
	return e.eventType
}

// BlockID returns the 0-based index of the block this event concerns, or
// -1 for stream-level events.
func (e *Event) BlockID() int {
	return e.blockID
}

// UncompressedSize returns the block's (or stream's) uncompressed size.
func (e *Event) UncompressedSize() int64 {
	return e.uncompSize
}

// CompressedSize returns the block's (or stream's) compressed size.
func (e *Event) CompressedSize() int64 {
	return e.compSize
}

// Time returns when the event was created.
func (e *Event) Time() time.Time {
	return e.eventTime
}

// String renders the event as a compact JSON-like line.
func (e *Event) String() string {
	t := ""

	switch e.eventType {
	case EvtBlockFlushed:
		t = "BLOCK_FLUSHED"
	case EvtStreamClosed:
		t = "STREAM_CLOSED"
	case EvtIndexWritten:
		t = "INDEX_WRITTEN"
	case EvtPaddingWritten:
		t = "PADDING_WRITTEN"
	}

	return fmt.Sprintf("{ \"type\":\"%s\", \"block\":%d, \"in\":%d, \"out\":%d, \"time\":%d }",
		t, e.blockID, e.uncompSize, e.compSize, e.eventTime.UnixNano()/1000000)
}

// Listener receives Events from a stream Writer.
type Listener interface {
	ProcessEvent(evt *Event)
}

func notifyListeners(listeners []Listener, evt *Event) {
	defer func() {
		recover()
	}()

	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}
