package tasks

// TaskList is a Graph To Do task list.
type TaskList struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// DateTimeTimeZone is a Graph date-time with an explicit time zone.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Task is a Graph To Do task. Status is "notStarted", "inProgress", or
// "completed".
type Task struct {
	ID              string            `json:"id,omitempty"`
	Title           string            `json:"title,omitempty"`
	Status          string            `json:"status,omitempty"`
	CreatedDateTime string            `json:"createdDateTime,omitempty"`
	DueDateTime     *DateTimeTimeZone `json:"dueDateTime,omitempty"`
}

// TaskUpdate are the optional fields for patching a task; nil fields are
// left untouched.
type TaskUpdate struct {
	Title  *string
	Status *string
	Due    *string
}

type taskListResponse struct {
	Value []TaskList `json:"value"`
}

type taskResponse struct {
	Value []Task `json:"value"`
}
