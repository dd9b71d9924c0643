// internal/domain/coupon/entity.go
package coupon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Source int

const (
	SourceShop     Source = 0
	SourcePlatform Source = 1
)

type Target int

const (
	TargetSpecificGood Target = 0
	TargetStoreWide    Target = 1
)

type DiscountType int

const (
	DiscountTypeFlat       DiscountType = 0
	DiscountTypeThreshold  DiscountType = 1
	DiscountTypePercentage DiscountType = 2
)

type TemplateStatus int

const (
	TemplateStatusActive TemplateStatus = 0
	TemplateStatusEnded  TemplateStatus = 1
)

// WireTimeLayout is the timestamp layout the backend reads and writes.
const WireTimeLayout = "2006-01-02 15:04:05"

// TemplateID is a backend-assigned identifier. Values can exceed 2^53, so the
// decimal digits are kept verbatim and never pass through a float.
type TemplateID string

// ParseTemplateID validates user or URL supplied input.
func ParseTemplateID(raw string) (TemplateID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > 20 {
		return "", fmt.Errorf("invalid coupon template id %q", raw)
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid coupon template id %q", raw)
		}
	}
	return TemplateID(raw), nil
}

func (id TemplateID) String() string { return string(id) }

func (id TemplateID) IsZero() bool { return id == "" }

// UnmarshalJSON accepts both "123" and 123.
func (id *TemplateID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TemplateID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("coupon template id: %w", err)
	}
	if _, err := ParseTemplateID(n.String()); err != nil {
		return err
	}
	*id = TemplateID(n.String())
	return nil
}

// MarshalJSON always writes a string so downstream JS clients keep precision.
func (id TemplateID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Timestamp decodes the handful of time encodings the backend has used.
type Timestamp struct {
	time.Time
	// floating is set for values sent without a zone; their wall clock
	// belongs to whatever zone Localize is given.
	floating bool
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*t = Timestamp{}
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		return nil
	}
	if b[0] != '"' {
		ms, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	for _, layout := range []string{WireTimeLayout, "2006-01-02T15:04:05", "2006-01-02"} {
		if v, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time, t.floating = v, true
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported format %q", s)
}

// Localize returns the instant expressed in loc. Zone-less values keep
// their wall clock and are read as loc time.
func (t Timestamp) Localize(loc *time.Location) Timestamp {
	if t.IsZero() || loc == nil {
		return t
	}
	if t.floating {
		y, mo, d := t.Date()
		h, mi, sec := t.Clock()
		return Timestamp{Time: time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), loc)}
	}
	return Timestamp{Time: t.Time.In(loc)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(WireTimeLayout))
}

// Template is the backend read model of a coupon template.
type Template struct {
	ID             TemplateID     `json:"couponTemplateId"`
	Name           string         `json:"name"`
	Source         Source         `json:"source"`
	Target         Target         `json:"target"`
	Goods          *string        `json:"goods"`
	Type           DiscountType   `json:"type"`
	ValidStartTime Timestamp      `json:"validStartTime"`
	ValidEndTime   Timestamp      `json:"validEndTime"`
	Stock          int64          `json:"stock"`
	ReceiveRule    string         `json:"receiveRule"`
	ConsumeRule    string         `json:"consumeRule"`
	Status         TemplateStatus `json:"status"`
}

// Localize moves the validity window into loc.
func (t *Template) Localize(loc *time.Location) {
	t.ValidStartTime = t.ValidStartTime.Localize(loc)
	t.ValidEndTime = t.ValidEndTime.Localize(loc)
}

func (t *Template) IsActive() bool {
	return t.Status == TemplateStatusActive
}

// GoodsCode returns the goods code or "" when none is recorded.
func (t *Template) GoodsCode() string {
	if t.Goods == nil {
		return ""
	}
	return strings.TrimSpace(*t.Goods)
}
