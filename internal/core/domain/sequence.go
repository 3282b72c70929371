package domain

import "fmt"

// SequenceCounter is the durable state behind one named sequence. Value is the
// last number handed out; a counter that was never used reads as zero.
type SequenceCounter struct {
	Name  string
	Value int64
}

// IDFormatter turns a raw sequence value into a display identifier.
type IDFormatter func(n int64) string

// FormatItemID renders n as "ID" followed by at least three digits.
// Values past 999 widen rather than truncate (1000 -> ID1000).
func FormatItemID(n int64) string {
	return fmt.Sprintf("ID%03d", n)
}
