package calendar

// DateTimeTimeZone is a Graph date-time with an explicit time zone.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Location is an event location.
type Location struct {
	DisplayName string `json:"displayName"`
}

// EmailAddress is an attendee's address with an optional display name.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Attendee is an event attendee.
type Attendee struct {
	EmailAddress EmailAddress `json:"emailAddress"`
	Type         string       `json:"type,omitempty"`
}

// Event is a Graph calendar event.
type Event struct {
	ID          string            `json:"id,omitempty"`
	Subject     string            `json:"subject,omitempty"`
	Start       *DateTimeTimeZone `json:"start,omitempty"`
	End         *DateTimeTimeZone `json:"end,omitempty"`
	Location    *Location         `json:"location,omitempty"`
	Attendees   []Attendee        `json:"attendees,omitempty"`
	BodyPreview string            `json:"bodyPreview,omitempty"`
}

// EventInput are the fields for creating an event. Start and End are
// ISO 8601 date-times interpreted as UTC.
type EventInput struct {
	Summary   string
	Start     string
	End       string
	Location  string
	Attendees []string
}

// EventUpdate are the optional fields for patching an event; nil fields are
// left untouched.
type EventUpdate struct {
	Summary  *string
	Start    *string
	End      *string
	Location *string
}

// ScheduleInfo is one attendee's free/busy answer from getSchedule.
type ScheduleInfo struct {
	ScheduleID       string         `json:"scheduleId,omitempty"`
	AvailabilityView string         `json:"availabilityView,omitempty"`
	ScheduleItems    []ScheduleItem `json:"scheduleItems,omitempty"`
}

// ScheduleItem is one busy block in a free/busy answer.
type ScheduleItem struct {
	Status string            `json:"status,omitempty"`
	Start  *DateTimeTimeZone `json:"start,omitempty"`
	End    *DateTimeTimeZone `json:"end,omitempty"`
}

type listResponse struct {
	Value []Event `json:"value"`
}

type scheduleResponse struct {
	Value []ScheduleInfo `json:"value"`
}

// scheduleRequest is the body of POST /me/calendar/getSchedule.
type scheduleRequest struct {
	Schedules                []string         `json:"schedules"`
	StartTime                DateTimeTimeZone `json:"startTime"`
	EndTime                  DateTimeTimeZone `json:"endTime"`
	AvailabilityViewInterval int              `json:"availabilityViewInterval"`
}
