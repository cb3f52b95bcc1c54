package cache

import (
	"net/url"
	"strconv"

	"github.com/joakimtj/eventdesk/internal/domain/event"
)

// EventsPrefix covers every cached events read model.
const EventsPrefix = "events:"

// EventFilterOptionsKey keeps the public and the admin view apart.
func EventFilterOptionsKey(publicOnly bool) string {
	if publicOnly {
		return EventsPrefix + "filters:v2:public"
	}
	return EventsPrefix + "filters:v2:all"
}

// EventsListKey encodes the filter as an escaped, sorted query string, so
// values containing separators cannot collide with other filters.
func EventsListKey(f event.ListEventsFilter) string {
	v := url.Values{}

	if f.Month != nil {
		v.Set("month", strconv.Itoa(*f.Month))
	}
	if f.Year != nil {
		v.Set("year", strconv.Itoa(*f.Year))
	}
	if f.EventType != nil {
		v.Set("type", *f.EventType)
	}
	if f.TemplateID != nil {
		v.Set("template", *f.TemplateID)
	}
	if f.IsPublic != nil {
		v.Set("public", strconv.FormatBool(*f.IsPublic))
	}
	if f.Status != nil {
		v.Set("status", string(*f.Status))
	}

	return EventsPrefix + "list:v2?" + v.Encode()
}
