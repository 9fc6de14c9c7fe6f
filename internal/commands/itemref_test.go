package commands

import (
	"errors"
	"testing"

	"rota/internal/model"
)

func TestParseItemNumber(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr bool
	}{
		{"simple", []string{"1"}, 1, false},
		{"multi digit", []string{"42"}, 42, false},
		{"extra args ignored", []string{"3", "trailing"}, 3, false},
		{"zero", []string{"0"}, 0, true},
		{"negative", []string{"-1"}, 0, true},
		{"not a number", []string{"abc"}, 0, true},
		{"mixed", []string{"1a"}, 0, true},
		{"empty arg", []string{""}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseItemNumber(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseItemNumberRequired(t *testing.T) {
	_, err := ParseItemNumber(nil)
	if !errors.Is(err, ErrNumberRequired) {
		t.Errorf("err = %v, want ErrNumberRequired", err)
	}
}

func TestTaskByNumber(t *testing.T) {
	tasks := []model.Task{{ID: "a"}, {ID: "b"}}

	if task, ok := taskByNumber(tasks, 2); !ok || task.ID != "b" {
		t.Errorf("taskByNumber(2) = %+v, %v", task, ok)
	}
	if _, ok := taskByNumber(tasks, 3); ok {
		t.Errorf("taskByNumber(3) resolved out of range")
	}
	if _, ok := taskByNumber(nil, 1); ok {
		t.Errorf("taskByNumber on empty slice resolved")
	}
}

func TestParseDayFlag(t *testing.T) {
	if _, has, err := parseDayFlag(""); has || err != nil {
		t.Errorf("empty flag: has = %v err = %v, want absent", has, err)
	}
	day, has, err := parseDayFlag("Friday")
	if err != nil || !has || day != model.Friday {
		t.Errorf("parseDayFlag(Friday) = %v, %v, %v", day, has, err)
	}
	if _, _, err := parseDayFlag("funday"); err == nil {
		t.Errorf("parseDayFlag(funday) accepted an invalid day")
	}
}
