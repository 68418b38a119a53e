package log

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// LogEvent is a single in-flight log entry built through a fluent field API
// and finalized by Msg/Msgf. Events are pooled by the owning logger, so an
// event must not be retained after Msg returns.
//
// All field methods are nil-safe: a logger whose level filter rejects the
// event returns a nil *LogEvent, and the chained calls become no-ops.
type LogEvent struct {
	buf    bytes.Buffer
	level  Level
	logger Logger
}

// newEvent creates an event bound to its owning logger. Used by the logger's
// sync.Pool constructor.
func newEvent(logger Logger) *LogEvent {
	return &LogEvent{logger: logger}
}

// Reset clears the event buffer so a pooled event can be reused.
func (e *LogEvent) Reset() {
	e.buf.Reset()
}

// appendKey writes the JSON object separator and the quoted field key.
func (e *LogEvent) appendKey(key string) {
	if e.buf.Len() == 0 {
		e.buf.WriteByte('{')
	} else {
		e.buf.WriteByte(',')
	}
	e.buf.WriteString(strconv.Quote(key))
	e.buf.WriteByte(':')
}

// Str adds a string field to the event.
func (e *LogEvent) Str(key, val string) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.WriteString(strconv.Quote(val))
	return e
}

// Int adds an int field to the event.
func (e *LogEvent) Int(key string, val int) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.WriteString(strconv.Itoa(val))
	return e
}

// Int64 adds an int64 field to the event.
func (e *LogEvent) Int64(key string, val int64) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.WriteString(strconv.FormatInt(val, 10))
	return e
}

// Uint64 adds a uint64 field to the event.
func (e *LogEvent) Uint64(key string, val uint64) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.WriteString(strconv.FormatUint(val, 10))
	return e
}

// Float64 adds a float64 field to the event.
func (e *LogEvent) Float64(key string, val float64) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	return e
}

// Bool adds a bool field to the event.
func (e *LogEvent) Bool(key string, val bool) *LogEvent {
	if e == nil {
		return nil
	}
	e.appendKey(key)
	e.buf.WriteString(strconv.FormatBool(val))
	return e
}

// Err adds an "error" field to the event. A nil error adds nothing.
func (e *LogEvent) Err(err error) *LogEvent {
	if e == nil || err == nil {
		return e
	}
	return e.Str("error", err.Error())
}

// Time adds a timestamp field formatted as RFC3339 with millisecond precision.
func (e *LogEvent) Time(key string, t *time.Time) *LogEvent {
	if e == nil {
		return nil
	}
	return e.Str(key, t.Format("2006-01-02T15:04:05.000Z07:00"))
}

// Dur adds a duration field rendered in milliseconds.
func (e *LogEvent) Dur(key string, d time.Duration) *LogEvent {
	if e == nil {
		return nil
	}
	return e.Float64(key, float64(d)/float64(time.Millisecond))
}

// Msg finalizes the event with a message and hands it to the logger's
// appenders. The event must not be used after Msg returns.
func (e *LogEvent) Msg(msg string) {
	if e == nil {
		return
	}
	if msg != "" {
		e.appendKey("msg")
		e.buf.WriteString(strconv.Quote(msg))
	}
	if e.buf.Len() == 0 {
		e.buf.WriteByte('{')
	}
	e.buf.WriteByte('}')
	e.buf.WriteByte('\n')
	e.logger.OnEventEnd(e)
}

// Msgf finalizes the event with a formatted message.
func (e *LogEvent) Msgf(format string, args ...any) {
	if e == nil {
		return
	}
	e.Msg(fmt.Sprintf(format, args...))
}
