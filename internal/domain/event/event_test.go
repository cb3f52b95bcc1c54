package event_test

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
	"github.com/joakimtj/eventdesk/internal/domain/event"
	"github.com/joakimtj/eventdesk/internal/domain/template"
)

func ptr[T any](v T) *T { return &v }

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer Workshop!!", "summer-workshop"},
		{"  Go   Meetup  ", "go-meetup"},
		{"Jazz & Blues 2025", "jazz-blues-2025"},
		{"---", ""},
		{"Ærlig talt", "rlig-talt"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, event.Slugify(tt.in))
		})
	}
}

func TestSlugify_Properties(t *testing.T) {
	shape := regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)

	rapid.Check(t, func(r *rapid.T) {
		in := rapid.String().Draw(r, "title")
		got := event.Slugify(in)

		if !shape.MatchString(got) {
			r.Fatalf("slug %q of %q has the wrong shape", got, in)
		}
		if again := event.Slugify(got); again != got {
			r.Fatalf("slugify is not idempotent: %q -> %q", got, again)
		}
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2025-03-03", want: "2025-03-03T00:00:00"},
		{in: "2025-03-03T10:30", want: "2025-03-03T10:30:00"},
		{in: "2025-03-03T10:30:15", want: "2025-03-03T10:30:15"},
		{in: "2025-03-03T23:30:00+02:00", want: "2025-03-03T23:30:00"},
		{in: "2025-03-03T10:30:00Z", want: "2025-03-03T10:30:00"},
		{in: "03/03/2025", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := event.ParseDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, errs.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, event.FormatDate(got))
		})
	}
}

func TestParseDate_KeepsWallClockWeekday(t *testing.T) {
	// Monday late evening in +02:00 is still Monday.
	got, err := event.ParseDate("2025-03-03T23:30:00+02:00")
	require.NoError(t, err)
	require.Equal(t, time.Monday, got.Weekday())
}

func TestNewFromCreateRequest(t *testing.T) {
	t.Run("derives slug and defaults to public", func(t *testing.T) {
		e, err := event.NewFromCreateRequest(event.CreateEventRequest{
			Title:     "Summer Workshop!!",
			EventType: "Workshop",
			Date:      "2025-06-02T10:00:00",
			Location:  "Halden",
			Capacity:  ptr(20),
		}, nil)

		require.NoError(t, err)
		require.True(t, strings.HasPrefix(e.ID, "evt_"))
		require.Equal(t, "summer-workshop", e.Slug)
		require.True(t, e.IsPublic)
		require.Nil(t, e.Price)
		require.Equal(t, 20, e.Capacity)
	})

	t.Run("template defaults fill omitted fields", func(t *testing.T) {
		tpl := &template.Template{
			ID:              "tpl_1",
			EventType:       "Concert",
			DefaultCapacity: 100,
			DefaultPrice:    250,
			Rules:           template.Rules{IsPrivate: true, HasFixedCapacity: true, FixedCapacity: 40, IsFree: true},
		}

		e, err := event.NewFromCreateRequest(event.CreateEventRequest{
			Title:      "Spring Concert",
			Date:       "2025-04-01",
			Location:   "Oslo",
			TemplateID: ptr("tpl_1"),
		}, tpl)

		require.NoError(t, err)
		require.Equal(t, "Concert", e.EventType)
		require.Equal(t, 40, e.Capacity)
		require.NotNil(t, e.Price)
		require.Equal(t, 0.0, *e.Price)
		require.False(t, e.IsPublic)
	})

	t.Run("explicit values win over the template", func(t *testing.T) {
		tpl := &template.Template{EventType: "Concert", DefaultCapacity: 100, DefaultPrice: 250}

		e, err := event.NewFromCreateRequest(event.CreateEventRequest{
			Title:     "Spring Concert",
			EventType: "Gala",
			Date:      "2025-04-01",
			Location:  "Oslo",
			Capacity:  ptr(10),
			Price:     ptr(99.5),
			IsPublic:  ptr(false),
		}, tpl)

		require.NoError(t, err)
		require.Equal(t, "Gala", e.EventType)
		require.Equal(t, 10, e.Capacity)
		require.Equal(t, 99.5, *e.Price)
		require.False(t, e.IsPublic)
	})

	t.Run("empty derived slug is invalid", func(t *testing.T) {
		_, err := event.NewFromCreateRequest(event.CreateEventRequest{
			Title:     "!!!",
			EventType: "Workshop",
			Date:      "2025-06-02",
			Location:  "Halden",
			Capacity:  ptr(5),
		}, nil)

		var inErr *errs.InputError
		require.ErrorAs(t, err, &inErr)
		require.Equal(t, "slug", inErr.Field)
	})

	t.Run("capacity required without template", func(t *testing.T) {
		_, err := event.NewFromCreateRequest(event.CreateEventRequest{
			Title:     "Talk",
			EventType: "Talk",
			Date:      "2025-06-02",
			Location:  "Halden",
		}, nil)

		require.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestEvent_MarshalJSON_NaiveDate(t *testing.T) {
	date, err := event.ParseDate("2025-03-03T10:00:00")
	require.NoError(t, err)

	b, err := json.Marshal(event.Event{ID: "evt_1", Date: date})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, "2025-03-03T10:00:00", out["date"])
	require.Equal(t, "evt_1", out["id"])

	var back event.Event
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, "evt_1", back.ID)
	require.True(t, back.Date.Equal(date))
}

func TestNewCapacity(t *testing.T) {
	e := event.Event{ID: "evt_1", Capacity: 3}

	c := event.NewCapacity(e, 2)
	require.Equal(t, 1, c.SpotsLeft)
	require.False(t, c.IsFull)

	c = event.NewCapacity(e, 5)
	require.Equal(t, 0, c.SpotsLeft)
	require.True(t, c.IsFull)
}
