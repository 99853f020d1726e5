package pattern

import (
	"fmt"
	"time"
)

// DateKind selects the comparison a DatePattern performs.
type DateKind int

const (
	AtOrAfter DateKind = iota
	Before
)

// DatePattern matches timestamps on one side of an instant, stored as
// milliseconds since the Unix epoch.
type DatePattern struct {
	Kind   DateKind
	Millis int64
}

// AfterTime returns a pattern matching instants at or after t.
func AfterTime(t time.Time) DatePattern {
	return DatePattern{Kind: AtOrAfter, Millis: t.UnixMilli()}
}

// BeforeTime returns a pattern matching instants strictly before t.
func BeforeTime(t time.Time) DatePattern {
	return DatePattern{Kind: Before, Millis: t.UnixMilli()}
}

// Time returns the pattern's instant in UTC.
func (p DatePattern) Time() time.Time {
	return time.UnixMilli(p.Millis).UTC()
}

const (
	rfc3339Seconds = "2006-01-02T15:04:05-07:00"
	rfc3339Millis  = "2006-01-02T15:04:05.000-07:00"
)

// FormatDate renders p as "after:<rfc3339>" or "before:<rfc3339>". The
// instant is printed in UTC with an explicit +00:00 offset; milliseconds are
// included only when non-zero.
func FormatDate(p DatePattern) string {
	t := p.Time()
	layout := rfc3339Seconds
	if p.Millis%1000 != 0 {
		layout = rfc3339Millis
	}
	switch p.Kind {
	case AtOrAfter:
		return "after:" + t.Format(layout)
	case Before:
		return "before:" + t.Format(layout)
	default:
		panic(fmt.Sprintf("pattern: unknown date kind %d", int(p.Kind)))
	}
}
