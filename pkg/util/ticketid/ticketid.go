// Package ticketid formats and parses public grievance identifiers of the
// form JD-MH-YYYYMMDD-NNN.
package ticketid

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"
)

const prefix = "JD-MH-"

var pattern = regexp.MustCompile(`^JD-MH-(\d{4})(\d{2})(\d{2})-(\d{3})$`)

// Generator produces ticket ids. The 3-digit suffix is random and may
// collide within a day; callers retry on a uniqueness violation.
type Generator struct {
	suffix func() int
}

// NewGenerator returns a generator backed by math/rand.
func NewGenerator() *Generator {
	return &Generator{suffix: func() int { return rand.IntN(1000) }}
}

// NewSequenceGenerator returns a generator that cycles through the given
// suffixes in order.
func NewSequenceGenerator(suffixes ...int) *Generator {
	i := 0
	return &Generator{suffix: func() int {
		if len(suffixes) == 0 {
			return 0
		}
		v := suffixes[i%len(suffixes)]
		i++
		return v
	}}
}

// Next formats an id for the given creation time.
func (g *Generator) Next(now time.Time) string {
	return Format(now, g.suffix())
}

// Format builds an id from a date and suffix.
func Format(date time.Time, suffix int) string {
	return fmt.Sprintf("%s%s-%03d", prefix, date.Format("20060102"), suffix%1000)
}

// Parsed is the decoded form of a ticket id.
type Parsed struct {
	Date   time.Time
	Suffix int
}

// Parse decodes a ticket id, returning false for malformed input.
func Parse(id string) (Parsed, bool) {
	m := pattern.FindStringSubmatch(id)
	if m == nil {
		return Parsed{}, false
	}
	date, err := time.Parse("20060102", m[1]+m[2]+m[3])
	if err != nil {
		return Parsed{}, false
	}
	suffix, _ := strconv.Atoi(m[4])
	return Parsed{Date: date, Suffix: suffix}, true
}
