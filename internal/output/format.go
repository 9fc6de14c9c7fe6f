// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"rota/internal/model"
)

const (
	// SectionSeparator is the separator line for document sections.
	SectionSeparator = "------------"
)

// FormatSectionHeader formats a section header ("Tasks", a weekday name,
// "Routines").
func FormatSectionHeader(w io.Writer, title string) {
	fmt.Fprintln(w, SectionSeparator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, SectionSeparator)
}

// FormatTask formats a task line.
// Format: "{N:>4}  [{x| }] {TEXT}\n"
func FormatTask(w io.Writer, num int, task model.Task) {
	mark := " "
	if task.Completed {
		mark = "x"
	}
	fmt.Fprintf(w, "%4d  [%s] %s\n", num, mark, normalizeText(task.Text))
}

// FormatRoutine formats a routine line with its week marks.
// Format: "{N:>4}  {MARKS}  {TEXT}\n" where MARKS shows the two-letter
// abbreviation for each completed day and "--" for the rest, Monday first.
func FormatRoutine(w io.Writer, num int, routine model.Routine) {
	marks := make([]string, 0, len(model.Weekdays))
	for _, d := range model.Weekdays {
		if routine.Completion[d] {
			marks = append(marks, d.Abbrev())
		} else {
			marks = append(marks, "--")
		}
	}
	fmt.Fprintf(w, "%4d  %s  %s\n", num, strings.Join(marks, " "), normalizeText(routine.Text))
}

// FormatRoutineForDay formats a routine like a task, checked when the
// routine is done on the given day.
func FormatRoutineForDay(w io.Writer, num int, routine model.Routine, day model.Weekday) {
	mark := " "
	if routine.Completion[day] {
		mark = "x"
	}
	fmt.Fprintf(w, "%4d  [%s] %s\n", num, mark, normalizeText(routine.Text))
}

// WeekdayTitle returns the capitalized display form of a weekday.
func WeekdayTitle(day model.Weekday) string {
	s := string(day)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// normalizeText normalizes item text for display. Local mutations reject
// empty text, but remote documents may carry anything.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}
