// Package models defines the data structures shared by the recorder, the
// record stream and replay.
package models

import "time"

// Value is one counter reading within a tick. A reading that failed for the
// tick is absent (Present == false) but still occupies its column.
type Value struct {
	V       float64
	Present bool
}

// PresentValue returns a Value holding v.
func PresentValue(v float64) Value {
	return Value{V: v, Present: true}
}

// Absent returns a Value for a counter that could not be read.
func Absent() Value {
	return Value{}
}

// SampleRow is one tick's output. Values are positionally aligned to the
// stream header.
type SampleRow struct {
	Time      time.Time
	Timestamp string
	Values    []Value
}

// Missing returns how many values in the row are absent.
func (r SampleRow) Missing() int {
	n := 0
	for _, v := range r.Values {
		if !v.Present {
			n++
		}
	}
	return n
}

// Identity names the process currently tracked for a world.
type Identity struct {
	Name string `json:"name"`
	PID  int32  `json:"pid"`
}

// RunSummary describes a finished recording session.
type RunSummary struct {
	World       string    `json:"world"`
	Output      string    `json:"output"`
	Ticks       int       `json:"ticks"`
	MaxTicks    int       `json:"max_ticks"`
	FailedReads int       `json:"failed_reads"`
	Restarts    int       `json:"restarts"`
	Identity    Identity  `json:"identity"`
	Cancelled   bool      `json:"cancelled"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}
