package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)


func TestParseWeekday_Aliases(t *testing.T) {
	cases := map[string]Weekday{
		"mon":      WeekdayMonday,
		"Monday":   WeekdayMonday,
		"  TUES  ": WeekdayTuesday,
		"weds":     WeekdayWednesday,
		"thur":     WeekdayThursday,
		"THURS":    WeekdayThursday,
		"friday":   WeekdayFriday,
	}
	for input, want := range cases {
		got, ok := ParseWeekday(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseWeekday_RejectsUnknownAndWeekends(t *testing.T) {
	for _, input := range []string{"", "sat", "sunday", "someday", "mo n"} {
		_, ok := ParseWeekday(input)
		assert.False(t, ok, input)
	}
}

func TestClient_ConsumesSlot(t *testing.T) {
	providerID, schoolID := uuid.New(), uuid.New()
	day := WeekdayMonday

	full := &Client{ProviderID: &providerID, SchoolID: &schoolID, Weekday: &day, Status: ClientStatusCurrent}
	assert.True(t, full.ConsumesSlot())

	archived := *full
	archived.Archived = true
	assert.False(t, archived.ConsumesSlot())

	pending := *full
	pending.Status = ClientStatusPending
	assert.False(t, pending.ConsumesSlot())

	unassigned := *full
	unassigned.ProviderID = nil
	assert.False(t, unassigned.ConsumesSlot())

	noDay := *full
	noDay.Weekday = nil
	assert.False(t, noDay.ConsumesSlot())
}
