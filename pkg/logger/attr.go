package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// UnitID records a validation unit identifier under the key "unit_id".
// An empty id yields an empty Attr.
func UnitID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("unit_id", id)
}

// UnitName records a human readable unit name under the key "unit".
// An empty name yields an empty Attr.
func UnitName(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("unit", name)
}

// Sequence records an evaluation sequence number under the key "seq".
func Sequence(seq uint64) slog.Attr {
	return slog.Uint64("seq", seq)
}

// Latest records the newest known sequence number under the key "latest_seq".
func Latest(seq uint64) slog.Attr {
	return slog.Uint64("latest_seq", seq)
}

// Status records a validation status under the key "status".
// Accepts any fmt.Stringer so callers don't depend on the engine types.
func Status(s interface{ String() string }) slog.Attr {
	return slog.String("status", s.String())
}

// Dependency records the position of a validator or parent in its unit.
func Dependency(index int) slog.Attr {
	return slog.Int("dependency", index)
}

// Mode records the validator mode under the key "mode".
func Mode(m interface{ String() string }) slog.Attr {
	return slog.String("mode", m.String())
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
