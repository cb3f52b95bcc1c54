package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
)

// Rules is the optional rule set attached to a template. It is persisted as a
// JSON document in templates.rules.
type Rules struct {
	NoSameDayEvents  bool    `json:"noSameDayEvents,omitempty"`
	AllowedWeekDays  []int   `json:"allowedWeekDays,omitempty" binding:"omitempty,dive,min=0,max=6"`
	IsPrivate        bool    `json:"isPrivate,omitempty"`
	HasFixedCapacity bool    `json:"hasFixedCapacity,omitempty"`
	FixedCapacity    int     `json:"fixedCapacity,omitempty" binding:"min=0"`
	HasFixedPrice    bool    `json:"hasFixedPrice,omitempty"`
	FixedPrice       float64 `json:"fixedPrice,omitempty" binding:"min=0"`
	IsFree           bool    `json:"isFree,omitempty"`
	HasWaitingList   bool    `json:"hasWaitingList,omitempty"`
}

// UnmarshalJSON accepts the rule set either as an object or as a string holding
// the encoded object, which is how older clients send it.
func (r *Rules) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)

	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*r = Rules{}
			return nil
		}
		raw = []byte(s)
	}

	type plain Rules
	var p plain

	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}

	*r = Rules(p)
	return nil
}

func (r Rules) Validate() error {
	for _, d := range r.AllowedWeekDays {
		if d < 0 || d > 6 {
			return errs.Invalid("rules.allowedWeekDays", fmt.Sprintf("weekday %d is outside 0..6", d))
		}
	}
	if r.HasFixedCapacity && r.FixedCapacity < 0 {
		return errs.Invalid("rules.fixedCapacity", "must be at least 0")
	}
	if r.HasFixedPrice && r.FixedPrice < 0 {
		return errs.Invalid("rules.fixedPrice", "must be at least 0")
	}
	return nil
}

// Normalize dedupes and sorts the allowed weekdays.
func (r Rules) Normalize() Rules {
	if len(r.AllowedWeekDays) == 0 {
		r.AllowedWeekDays = nil
		return r
	}

	seen := make(map[int]struct{}, len(r.AllowedWeekDays))
	days := make([]int, 0, len(r.AllowedWeekDays))

	for _, d := range r.AllowedWeekDays {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Ints(days)

	r.AllowedWeekDays = days
	return r
}

func (r Rules) AllowsWeekday(d time.Weekday) bool {
	if len(r.AllowedWeekDays) == 0 {
		return true
	}
	for _, allowed := range r.AllowedWeekDays {
		if time.Weekday(allowed) == d {
			return true
		}
	}
	return false
}

// AllowedWeekdayNames renders the allowed days as "Monday, Wednesday".
func (r Rules) AllowedWeekdayNames() string {
	names := make([]string, 0, len(r.AllowedWeekDays))
	for _, d := range r.AllowedWeekDays {
		names = append(names, time.Weekday(d).String())
	}
	return strings.Join(names, ", ")
}

func EncodeRules(r Rules) (string, error) {
	b, err := json.Marshal(r.Normalize())
	if err != nil {
		return "", fmt.Errorf("encode rules: %w", err)
	}
	return string(b), nil
}

func DecodeRules(doc string) (Rules, error) {
	if strings.TrimSpace(doc) == "" {
		return Rules{}, nil
	}

	var r Rules
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}
	return r.Normalize(), nil
}
