package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a date string cannot be resolved to a
// real calendar date.
var ErrInvalidDate = errors.New("invalid date")

// token is one classified piece of the input: its original text, and
// its numeric value when the text is all digits.
type token struct {
	raw   string
	num   int
	isNum bool
}

// dayLike reports whether the token can only be a day of month, i.e. a
// number too large for a month but small enough for a day.
func (t token) dayLike() bool {
	return t.isNum && t.num > 12 && t.num <= 31
}

// Resolve parses a loosely-formatted date string into a UTC calendar
// date. It accepts three tokens separated by any of `/ . - \` or space
// and works out which token is the day, month and year:
//
//   - a number above 31 is taken as the year;
//   - a number in 13..31 can only be a day;
//   - month names ("Nov", "November") are matched case-insensitively;
//   - remaining ambiguity is settled positionally as day-month-year;
//   - two-digit years are treated as 20xx.
//
// Inputs like "21-11-2023", "Nov 21 2023" and "21 11 23" all resolve to
// the same date. Dates that do not exist (Feb 31) fail with
// ErrInvalidDate.
func Resolve(raw string) (time.Time, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case '/', '.', '-', '\\', ' ':
			return true
		}
		return false
	})
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q does not have three parts", ErrInvalidDate, raw)
	}

	var toks [3]token
	for i, f := range fields {
		toks[i] = classify(f)
	}

	dayIdx, monthIdx, yearIdx := -1, -1, -1

	// An all-digit token above 31 (and below 10000) can only be the
	// year, whether already four digits or a bare "99".
	for i, t := range toks {
		if t.isNum && t.num > 31 && t.num < 10000 {
			yearIdx = i
			break
		}
	}

	allEqual := toks[0].isNum && toks[1].isNum && toks[2].isNum &&
		toks[0].num == toks[1].num && toks[0].num == toks[2].num

	switch {
	case allEqual:
		// Degenerate input like "7 7 7"; fall back to positional
		// day-month-year so it still resolves deterministically.
		dayIdx, monthIdx, yearIdx = 2, 1, 0

	case yearIdx >= 0:
		var rem [2]int
		n := 0
		for i := range toks {
			if i != yearIdx {
				rem[n] = i
				n++
			}
		}
		a, b := toks[rem[0]], toks[rem[1]]
		switch {
		case a.dayLike() && !b.dayLike():
			dayIdx, monthIdx = rem[0], rem[1]
		case b.dayLike() && !a.dayLike():
			dayIdx, monthIdx = rem[1], rem[0]
		case a.isNum && b.isNum && a.num <= 12 && b.num <= 12:
			// Both could be either; read them day-first, not
			// month-first.
			dayIdx, monthIdx = rem[0], rem[1]
		}

	default:
		// No token is big enough to be an obvious year. When at least
		// two tokens are day-sized, the middle one is the month and
		// the larger of the outer pair is the (two-digit) year.
		dayCount := 0
		for _, t := range toks {
			if t.dayLike() {
				dayCount++
			}
		}
		if dayCount >= 2 {
			monthIdx = 1
			if toks[0].num >= toks[2].num {
				yearIdx, dayIdx = 0, 2
			} else {
				yearIdx, dayIdx = 2, 0
			}
		}
	}

	// Month by name, if not already settled numerically.
	if monthIdx < 0 {
		for i, t := range toks {
			if i == yearIdx || i == dayIdx || t.isNum {
				continue
			}
			if _, ok := monthNumber(t.raw); ok {
				monthIdx = i
				break
			}
		}
	}
	// With year and day pinned down the leftover token must be the
	// month.
	if monthIdx < 0 && yearIdx >= 0 && dayIdx >= 0 {
		for i := range toks {
			if i != yearIdx && i != dayIdx {
				monthIdx = i
				break
			}
		}
	}

	// Anything still unresolved reads positionally as day-month-year.
	if dayIdx < 0 {
		dayIdx = 0
	}
	if monthIdx < 0 {
		monthIdx = 1
	}
	if yearIdx < 0 {
		yearIdx = 2
	}

	day, err := strconv.Atoi(toks[dayIdx].raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q has no usable day", ErrInvalidDate, raw)
	}

	month, ok := monthNumber(toks[monthIdx].raw)
	if !ok {
		month, err = strconv.Atoi(toks[monthIdx].raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q has no usable month", ErrInvalidDate, raw)
		}
	}

	yearRaw := toks[yearIdx].raw
	if len(yearRaw) == 2 {
		yearRaw = "20" + yearRaw
	}
	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q has no usable year", ErrInvalidDate, raw)
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 31 becomes Mar 3), so compare
	// the components back to catch impossible dates.
	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return date, nil
}

func classify(raw string) token {
	for _, r := range raw {
		if r < '0' || r > '9' {
			return token{raw: raw}
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return token{raw: raw}
	}
	return token{raw: raw, num: n, isNum: true}
}

// monthNumber matches a token against full or three-letter English
// month names, case-insensitively.
func monthNumber(raw string) (int, bool) {
	t := strings.ToLower(raw)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if t == name || t == name[:3] {
			return int(m), true
		}
	}
	return 0, false
}
