package commands

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"rota/internal/model"
)

// ErrNumberRequired indicates no item number was provided.
var ErrNumberRequired = errors.New("item number required")

// ParseItemNumber parses the 1-based display number used to reference a
// task or routine, taken from the first positional argument.
func ParseItemNumber(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrNumberRequired
	}
	arg := args[0]
	if !isAllDigits(arg) {
		return 0, fmt.Errorf("invalid item number: %s", arg)
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid item number: %s", arg)
	}
	return n, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// taskByNumber resolves a display number against a task slice in display
// order.
func taskByNumber(tasks []model.Task, n int) (model.Task, bool) {
	if n < 1 || n > len(tasks) {
		return model.Task{}, false
	}
	return tasks[n-1], true
}

// routineByNumber resolves a display number against the routine list.
func routineByNumber(routines []model.Routine, n int) (model.Routine, bool) {
	if n < 1 || n > len(routines) {
		return model.Routine{}, false
	}
	return routines[n-1], true
}

// parseDayFlag converts a --day value. An empty value means the flag was
// not provided.
func parseDayFlag(value string) (model.Weekday, bool, error) {
	if value == "" {
		return "", false, nil
	}
	day, err := model.ParseWeekday(value)
	if err != nil {
		return "", false, fmt.Errorf("invalid day: %q (want monday..sunday)", value)
	}
	return day, true, nil
}
