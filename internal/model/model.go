// Package model defines the synchronized document types: tasks, weekday
// buckets, and recurring routines. The whole model round-trips as one
// document per user, so every type carries both json and firestore tags.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Weekday is a canonical lowercase weekday name ("monday" .. "sunday").
type Weekday string

// The seven canonical weekdays. These are the only valid Weekday values;
// they double as the bucket keys of UserDocument.DailyTasks and the keys
// of Routine.Completion.
const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the canonical weekdays in display order, Monday first.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ErrInvalidWeekday is returned when a day name is not one of the seven
// canonical values.
var ErrInvalidWeekday = errors.New("invalid weekday")

// ParseWeekday parses a day name, trimming whitespace and ignoring case.
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return d, nil
}

// Valid reports whether d is one of the seven canonical weekdays.
func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// Abbrev returns the two-letter display form ("Mo" .. "Su").
func (d Weekday) Abbrev() string {
	if len(d) < 2 {
		return "??"
	}
	return strings.ToUpper(string(d[0])) + string(d[1])
}

// FromTime maps a time.Time to its canonical weekday.
func FromTime(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Task is a single checkable item.
type Task struct {
	ID        string `json:"id" firestore:"id"`
	Text      string `json:"text" firestore:"text"`
	Completed bool   `json:"completed" firestore:"completed"`
}

// Routine is a recurring item checked off independently per weekday.
// Completion always carries exactly the seven canonical keys.
type Routine struct {
	ID         string           `json:"id" firestore:"id"`
	Text       string           `json:"text" firestore:"text"`
	Completion map[Weekday]bool `json:"completion" firestore:"completion"`
}

// NewRoutine returns a routine with all seven days unchecked.
func NewRoutine(id, text string) Routine {
	r := Routine{ID: id, Text: text, Completion: make(map[Weekday]bool, len(Weekdays))}
	for _, d := range Weekdays {
		r.Completion[d] = false
	}
	return r
}

// Clone returns a deep copy of the routine.
func (r Routine) Clone() Routine {
	c := r
	c.Completion = make(map[Weekday]bool, len(Weekdays))
	for d, done := range r.Completion {
		c.Completion[d] = done
	}
	return c
}

// normalized fills missing weekday keys with false and drops unknown keys.
func (r Routine) normalized() Routine {
	c := Routine{ID: r.ID, Text: r.Text, Completion: make(map[Weekday]bool, len(Weekdays))}
	for _, d := range Weekdays {
		c.Completion[d] = r.Completion[d]
	}
	return c
}

// UserDocument is the entire synchronized state for one user. It is read
// and written wholesale; there are no partial updates.
type UserDocument struct {
	GlobalTasks []Task             `json:"globalTasks" firestore:"globalTasks"`
	DailyTasks  map[Weekday][]Task `json:"dailyTasks" firestore:"dailyTasks"`
	Routines    []Routine          `json:"routines" firestore:"routines"`
}

// New returns the all-empty document: no tasks, no routines, and all seven
// weekday buckets present and empty.
func New() UserDocument {
	doc := UserDocument{
		GlobalTasks: []Task{},
		DailyTasks:  make(map[Weekday][]Task, len(Weekdays)),
		Routines:    []Routine{},
	}
	for _, d := range Weekdays {
		doc.DailyTasks[d] = []Task{}
	}
	return doc
}

// Normalized returns a copy with every absent field replaced by its empty
// form: nil collections become empty, missing weekday buckets and routine
// completion keys are filled, and non-canonical bucket keys are dropped.
// Remote documents pass through here before replacing local state, so a
// malformed document repairs rather than errors.
func (d UserDocument) Normalized() UserDocument {
	doc := New()
	if len(d.GlobalTasks) > 0 {
		doc.GlobalTasks = append([]Task{}, d.GlobalTasks...)
	}
	for _, day := range Weekdays {
		if tasks := d.DailyTasks[day]; len(tasks) > 0 {
			doc.DailyTasks[day] = append([]Task{}, tasks...)
		}
	}
	for _, r := range d.Routines {
		doc.Routines = append(doc.Routines, r.normalized())
	}
	return doc
}

// Clone returns a deep copy. Mutations operate on clones so every applied
// snapshot stays immutable once shared.
func (d UserDocument) Clone() UserDocument {
	doc := UserDocument{
		GlobalTasks: append([]Task{}, d.GlobalTasks...),
		DailyTasks:  make(map[Weekday][]Task, len(d.DailyTasks)),
		Routines:    make([]Routine, 0, len(d.Routines)),
	}
	for day, tasks := range d.DailyTasks {
		doc.DailyTasks[day] = append([]Task{}, tasks...)
	}
	for _, r := range d.Routines {
		doc.Routines = append(doc.Routines, r.Clone())
	}
	return doc
}

// Empty reports whether the document holds no tasks and no routines.
func (d UserDocument) Empty() bool {
	if len(d.GlobalTasks) > 0 || len(d.Routines) > 0 {
		return false
	}
	for _, tasks := range d.DailyTasks {
		if len(tasks) > 0 {
			return false
		}
	}
	return true
}
