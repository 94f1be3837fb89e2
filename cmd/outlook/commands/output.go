package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mstoffel/outlook-cli/internal/calendar"
	"github.com/mstoffel/outlook-cli/internal/mail"
	"github.com/mstoffel/outlook-cli/internal/tasks"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatAddress(addr mail.EmailAddress) string {
	if addr.Name != "" && addr.Name != addr.Address {
		return fmt.Sprintf("%s <%s>", addr.Name, addr.Address)
	}
	return addr.Address
}

func writeMessages(w io.Writer, messages []mail.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages")
		return
	}
	for _, m := range messages {
		from := "(unknown sender)"
		if m.From != nil {
			from = formatAddress(m.From.EmailAddress)
		}
		marker := " "
		if m.IsRead != nil && !*m.IsRead {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %s: %s\n    id: %s\n", marker, m.ReceivedDateTime, from, m.Subject, m.ID)
	}
}

func writeMessageDetail(w io.Writer, m *mail.Message) {
	fmt.Fprintf(w, "Subject: %s\n", m.Subject)
	if m.From != nil {
		fmt.Fprintf(w, "From: %s\n", formatAddress(m.From.EmailAddress))
	}
	if len(m.ToRecipients) > 0 {
		addrs := make([]string, 0, len(m.ToRecipients))
		for _, r := range m.ToRecipients {
			addrs = append(addrs, formatAddress(r.EmailAddress))
		}
		fmt.Fprintf(w, "To: %s\n", strings.Join(addrs, ", "))
	}
	fmt.Fprintf(w, "Received: %s\n", m.ReceivedDateTime)
	fmt.Fprintln(w)
	if m.Body != nil {
		fmt.Fprintln(w, m.Body.Content)
		return
	}
	fmt.Fprintln(w, m.BodyPreview)
}

func writeEvents(w io.Writer, events []calendar.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}
	for _, e := range events {
		start, end := "?", "?"
		if e.Start != nil {
			start = e.Start.DateTime
		}
		if e.End != nil {
			end = e.End.DateTime
		}
		fmt.Fprintf(w, "%s → %s  %s\n", start, end, e.Subject)
		if e.Location != nil && e.Location.DisplayName != "" {
			fmt.Fprintf(w, "    at: %s\n", e.Location.DisplayName)
		}
		fmt.Fprintf(w, "    id: %s\n", e.ID)
	}
}

func writeSchedules(w io.Writer, schedules []calendar.ScheduleInfo) {
	for _, s := range schedules {
		fmt.Fprintf(w, "%s  availability: %s\n", s.ScheduleID, s.AvailabilityView)
		for _, item := range s.ScheduleItems {
			start, end := "?", "?"
			if item.Start != nil {
				start = item.Start.DateTime
			}
			if item.End != nil {
				end = item.End.DateTime
			}
			fmt.Fprintf(w, "    %s: %s → %s\n", item.Status, start, end)
		}
	}
}

func writeTaskLists(w io.Writer, lists []tasks.TaskList) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No task lists")
		return
	}
	for _, l := range lists {
		fmt.Fprintf(w, "%s  (id: %s)\n", l.DisplayName, l.ID)
	}
}

func writeTasks(w io.Writer, items []tasks.Task) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}
	for _, t := range items {
		marker := "[ ]"
		if t.Status == "completed" {
			marker = "[x]"
		}
		fmt.Fprintf(w, "%s %s\n", marker, t.Title)
		if t.DueDateTime != nil {
			fmt.Fprintf(w, "    due: %s\n", t.DueDateTime.DateTime)
		}
		fmt.Fprintf(w, "    id: %s\n", t.ID)
	}
}
