// Package timelib is the native-function catalog for the Time namespace:
// wall-clock readings and timestamp<->calendar-field conversions, grounded
// on the Date/DateTime natives a native-C scripting VM's src/vm/date.c
// would expose, collapsed from two native classes plus a Duration class
// into free functions over plain Dictionary values, the same simplification
// stdlib/iolib applies to the stream-class hierarchy in src/std/io.c.
// Calendar fields are expressed in the local timezone, matching
// date.c's use of localtime_s throughout.
package timelib

import (
	"fmt"
	"strings"
	"time"

	"github.com/vela-lang/vela/internal/native"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// Register installs every Time.* native function into module, the binding
// table a `require "Time"` resolves to (see internal/modloader).
func Register(m native.Registrar) {
	native.Function(m, "now", 0, func(ivm object.VM, _ []value.Value) (value.Value, error) {
		return calendarDict(ivm, time.Now())
	})

	native.Function(m, "timestamp", 0, func(_ object.VM, _ []value.Value) (value.Value, error) {
		return value.Float(float64(time.Now().UnixNano()) / 1e9), nil
	})

	native.Function(m, "fromTimestamp", 1, func(ivm object.VM, args []value.Value) (value.Value, error) {
		seconds, err := native.CheckNumber("Time.fromTimestamp", args, 0)
		if err != nil {
			return value.Nil, err
		}
		whole := int64(seconds)
		nanos := int64((seconds - float64(whole)) * 1e9)
		return calendarDict(ivm, time.Unix(whole, nanos))
	})

	native.Function(m, "toTimestamp", 1, func(ivm object.VM, args []value.Value) (value.Value, error) {
		d, err := checkDict("Time.toTimestamp", args, 0)
		if err != nil {
			return value.Nil, err
		}
		t, err := calendarTime(ivm, d)
		if err != nil {
			return value.Nil, err
		}
		return value.Float(float64(t.Unix())), nil
	})

	native.Function(m, "format", 2, func(ivm object.VM, args []value.Value) (value.Value, error) {
		d, err := checkDict("Time.format", args, 0)
		if err != nil {
			return value.Nil, err
		}
		layout, err := native.CheckString("Time.format", args, 1)
		if err != nil {
			return value.Nil, err
		}
		t, err := calendarTime(ivm, d)
		if err != nil {
			return value.Nil, err
		}
		return value.Object(ivm.Intern(t.Format(goLayout(layout)))), nil
	})
}

// calendarDict builds the Dictionary representation every Time.* function
// exchanges: year/month/day/hour/minute/second/weekday, matching the field
// names dateObjNow/dateTimeObjNow set on their Date/DateTime instances.
//
// Every field name is written through ivm.Intern, not just at construction
// but again at lookup time in calendarTime: Dictionary keys compare equal
// by pointer (see value.Value.Equal), so a lookup key built from a
// differently-allocated *object.String with identical content would never
// match the key actually stored in the table.
func calendarDict(ivm object.VM, t time.Time) (value.Value, error) {
	d := object.NewDictionary()
	set := func(key string, v value.Value) { d.Set(value.Object(ivm.Intern(key)), v) }
	set("year", value.Int(int64(t.Year())))
	set("month", value.Int(int64(t.Month())))
	set("day", value.Int(int64(t.Day())))
	set("hour", value.Int(int64(t.Hour())))
	set("minute", value.Int(int64(t.Minute())))
	set("second", value.Int(int64(t.Second())))
	set("weekday", value.Int(int64(t.Weekday())))
	if err := ivm.Track(d); err != nil {
		return value.Nil, err
	}
	return value.Object(d), nil
}

func checkDict(method string, args []value.Value, index int) (*object.Dictionary, error) {
	if index >= len(args) || !args[index].IsObject() {
		return nil, fmt.Errorf("method %s expects argument %d to be a Dictionary", method, index+1)
	}
	d, ok := args[index].Obj.(*object.Dictionary)
	if !ok {
		return nil, fmt.Errorf("method %s expects argument %d to be a Dictionary", method, index+1)
	}
	return d, nil
}

func calendarTime(ivm object.VM, d *object.Dictionary) (time.Time, error) {
	field := func(name string, required bool) (int, error) {
		v, ok := d.Get(value.Object(ivm.Intern(name)))
		if !ok {
			if required {
				return 0, fmt.Errorf("Time: dictionary is missing field %q", name)
			}
			return 0, nil
		}
		if !v.IsInt() {
			return 0, fmt.Errorf("Time: field %q must be an Int", name)
		}
		return int(v.AsInt()), nil
	}
	year, err := field("year", true)
	if err != nil {
		return time.Time{}, err
	}
	month, err := field("month", true)
	if err != nil {
		return time.Time{}, err
	}
	day, err := field("day", true)
	if err != nil {
		return time.Time{}, err
	}
	hour, err := field("hour", false)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := field("minute", false)
	if err != nil {
		return time.Time{}, err
	}
	second, err := field("second", false)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local), nil
}

// goLayout lets script code write the familiar strftime-ish tokens instead
// of Go's reference-date layout string, since the Language has no native
// concept of Go's Mon Jan 2 15:04:05 2006 reference time.
func goLayout(layout string) string {
	replacer := strings.NewReplacer(
		"YYYY", "2006", "MM", "01", "DD", "02",
		"hh", "15", "mm", "04", "ss", "05",
	)
	return replacer.Replace(layout)
}
