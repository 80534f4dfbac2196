// Package models defines lifecycle events: dated facts about a user's life
// that warrant a fresh recommendation pass.
package models

import (
	"strings"
	"time"

	id "welfarehub/pkg/domain"
)

type EventType string

const (
	EventPregnancyConfirmed EventType = "PREGNANCY_CONFIRMED"
	EventPregnancyMidterm   EventType = "PREGNANCY_MIDTERM"
	EventPregnancyDue       EventType = "PREGNANCY_DUE"
	EventBirth              EventType = "BIRTH"
	EventChild100Days       EventType = "CHILD_100_DAYS"
	EventChildFirstBirthday EventType = "CHILD_FIRST_BIRTHDAY"
	EventChildAgeMilestone  EventType = "CHILD_AGE_MILESTONE"
	EventDaycareEligible    EventType = "DAYCARE_ELIGIBLE"
	EventKindergartenEntry  EventType = "KINDERGARTEN_ENTRY"
	EventElementaryEntry    EventType = "ELEMENTARY_SCHOOL_ENTRY"
	EventMiddleSchoolEntry  EventType = "MIDDLE_SCHOOL_ENTRY"
	EventHighSchoolEntry    EventType = "HIGH_SCHOOL_ENTRY"
	EventVaccinationDue     EventType = "VACCINATION_DUE"
	EventHealthCheckupDue   EventType = "HEALTH_CHECKUP_DUE"
	EventMarriage           EventType = "MARRIAGE"
	EventRelocation         EventType = "RELOCATION"
	EventIncomeChange       EventType = "INCOME_CHANGE"
	EventBirthday           EventType = "BIRTHDAY"
	EventWeddingAnniversary EventType = "WEDDING_ANNIVERSARY"
)

var knownTypes = map[EventType]struct{}{
	EventPregnancyConfirmed: {}, EventPregnancyMidterm: {}, EventPregnancyDue: {},
	EventBirth: {}, EventChild100Days: {}, EventChildFirstBirthday: {}, EventChildAgeMilestone: {},
	EventDaycareEligible: {}, EventKindergartenEntry: {}, EventElementaryEntry: {},
	EventMiddleSchoolEntry: {}, EventHighSchoolEntry: {},
	EventVaccinationDue: {}, EventHealthCheckupDue: {},
	EventMarriage: {}, EventRelocation: {}, EventIncomeChange: {},
	EventBirthday: {}, EventWeddingAnniversary: {},
}

func ParseEventType(s string) (EventType, bool) {
	t := EventType(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := knownTypes[t]
	return t, ok
}

// LeadTimes are the day offsets the upcoming query selects.
var LeadTimes = []int{7, 3, 1}

// Event is unique on (UserID, Type, EventDate, ChildName). EventDate is a
// calendar date stored at UTC midnight.
type Event struct {
	ID          id.EventID `json:"id"`
	UserID      id.UserID  `json:"user_id"`
	Type        EventType  `json:"event_type"`
	EventDate   time.Time  `json:"event_date"`
	ChildName   string     `json:"child_name,omitempty"`
	Description string     `json:"description,omitempty"`
	IsProcessed bool       `json:"is_processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NaturalKey identifies duplicates.
func (e *Event) NaturalKey() string {
	return e.UserID.String() + "|" + string(e.Type) + "|" + e.EventDate.Format(time.DateOnly) + "|" + e.ChildName
}

// UpcomingEvent is an unprocessed event DaysUntil days after the query date.
type UpcomingEvent struct {
	Event     *Event `json:"event"`
	DaysUntil int    `json:"days_until"`
}

// DateOf truncates t to its calendar date in t's location, returned at UTC
// midnight so dates compare by value.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
