package models

import (
	"testing"
	"time"
)

func TestNextDueOneTime(t *testing.T) {
	due := time.Now().Add(-time.Hour)
	task := ScheduledTask{TaskType: ScheduledTaskTypeOneTime, Due: due}
	if got := task.NextDue(); !got.Equal(due) {
		t.Errorf("NextDue() = %v; want unchanged due %v", got, due)
	}
}

func TestNextDueRecurringDaily(t *testing.T) {
	rule := "FREQ=DAILY"
	due := time.Now().Add(-time.Hour).Truncate(time.Second)
	task := ScheduledTask{
		TaskType:          ScheduledTaskTypeRecurring,
		Due:               due,
		RecurringInterval: &rule,
	}

	next := task.NextDue()
	if !next.After(time.Now()) {
		t.Errorf("NextDue() = %v; want a future occurrence", next)
	}
	if next.Sub(due) > 25*time.Hour {
		t.Errorf("NextDue() = %v; want within a day of %v", next, due)
	}
}

func TestNextDueBadRuleFallsBack(t *testing.T) {
	rule := "not an rrule"
	due := time.Now().Add(-time.Hour)
	task := ScheduledTask{
		TaskType:          ScheduledTaskTypeRecurring,
		Due:               due,
		RecurringInterval: &rule,
	}
	if got := task.NextDue(); !got.Equal(due) {
		t.Errorf("NextDue() = %v; want fallback to due %v", got, due)
	}
}
