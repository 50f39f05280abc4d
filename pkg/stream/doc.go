// Package stream holds the pieces shared by the byte-at-a-time protocol
// parsers: the frame Accumulator, header Verdicts, the Event variant type and
// the single-handler-per-kind Dispatcher.
package stream
