package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// recordID decodes an id written either as a JSON string or as a number.
// Seeded json-server data commonly uses numeric ids.
type recordID string

func (id *recordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = recordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = recordID(n.String())
	return nil
}

// timestamp decodes createdAt leniently: RFC3339, a bare date or epoch
// milliseconds. Anything else decodes to the zero time.
type timestamp time.Time

func (t *timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = timestamp{}
		return nil
	}

	if data[0] != '"' {
		var ms json.Number
		if err := json.Unmarshal(data, &ms); err != nil {
			*t = timestamp{}
			return nil
		}
		if v, err := ms.Int64(); err == nil {
			*t = timestamp(time.UnixMilli(v).UTC())
			return nil
		}
		*t = timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = timestamp(parseTimestamp(s))
	return nil
}

// parseTimestamp reads the createdAt formats found in store records. It
// returns the zero time for values it does not recognise.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, DueDateLayout} {
		if v, err := time.Parse(layout, s); err == nil {
			return v
		}
	}
	return time.Time{}
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		ID        recordID  `json:"id"`
		CreatedAt timestamp `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	u.ID = string(raw.ID)
	u.CreatedAt = time.Time(raw.CreatedAt)
	return nil
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var raw struct {
		plain
		ID        recordID  `json:"id"`
		UserID    recordID  `json:"userId"`
		CreatedAt timestamp `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Task(raw.plain)
	t.ID = string(raw.ID)
	t.UserID = string(raw.UserID)
	t.CreatedAt = time.Time(raw.CreatedAt)
	return nil
}
