package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/eventflow/eventflow/modules/events/domain/aggregates/event"
)

const (
	calendarProdID   = "-//EventFlow//Public Events//EN"
	calendarFallback = "eventflow.local"
	icsTimeLayout    = "20060102T150405Z"
)

var icsEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
	",", `\,`,
	";", `\;`,
)

// CalendarFileName is the attachment name for e's calendar file.
func CalendarFileName(e *event.Event) string {
	return fmt.Sprintf("event-%s.ics", e.HashID())
}

// Calendar renders e as a single-event VCALENDAR. eventURL is the public
// page of the event, appURL the application base used for the UID host.
func Calendar(e *event.Event, organizer, eventURL, appURL string) string {
	host := calendarFallback
	if u, err := url.Parse(appURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	if organizer == "" {
		organizer = "Workspace"
	}
	description := strings.TrimSpace(e.Description() + "\n\n" + eventURL)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + calendarProdID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:%d@%s", e.ID(), host),
		"SUMMARY:" + icsEscaper.Replace(e.Title()),
		"DTSTART:" + e.StartsAt().UTC().Format(icsTimeLayout),
		"DTEND:" + e.EffectiveEnd().UTC().Format(icsTimeLayout),
		"DESCRIPTION:" + icsEscaper.Replace(description),
		"LOCATION:" + icsEscaper.Replace(e.Location()),
		"URL:" + eventURL,
		"ORGANIZER:" + icsEscaper.Replace(organizer),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}
