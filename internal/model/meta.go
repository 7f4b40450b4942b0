package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Channel is the surface a task's output is published to.
type Channel string

const (
	ChannelBlog            Channel = "blog"
	ChannelLocalListing    Channel = "local-listing"
	ChannelHomepageLanding Channel = "homepage-landing"
	ChannelVendor          Channel = "vendor"
	ChannelInternal        Channel = "internal"
	ChannelContractLegal   Channel = "contract-legal"
	ChannelOther           Channel = "other"
)

// Channels returns all known channels in display order.
func Channels() []Channel {
	return []Channel{
		ChannelBlog,
		ChannelLocalListing,
		ChannelHomepageLanding,
		ChannelVendor,
		ChannelInternal,
		ChannelContractLegal,
		ChannelOther,
	}
}

// dateLayout is the wire format of a Date.
const dateLayout = "2006-01-02"

// Date is a calendar date without a time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DaysSince returns the number of whole calendar days from other to d.
// Negative when d is before other.
func (d Date) DaysSince(other Date) int {
	a := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	b := time.Date(other.Year, other.Month, other.Day, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Link is a titled URL attached to a task.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// TaskMeta is user-editable metadata keyed by task ID. A task without an
// entry simply has no metadata yet.
type TaskMeta struct {
	Due           *Date      `json:"due,omitempty"`
	Channel       Channel    `json:"channel,omitempty"`
	EstMin        int        `json:"estMin,omitempty"`
	DependsOn     string     `json:"dependsOn,omitempty"`
	DependencyIDs []string   `json:"dependencyIds,omitempty"`
	Note          string     `json:"note,omitempty"`
	Links         []Link     `json:"links,omitempty"`
	LastUpdated   *Timestamp `json:"lastUpdated,omitempty"`
}

// Clone returns a deep copy of the metadata.
func (m TaskMeta) Clone() TaskMeta {
	c := m
	if m.Due != nil {
		due := *m.Due
		c.Due = &due
	}
	if m.LastUpdated != nil {
		ts := *m.LastUpdated
		c.LastUpdated = &ts
	}
	c.DependencyIDs = cloneStrings(m.DependencyIDs)
	if m.Links != nil {
		c.Links = make([]Link, len(m.Links))
		copy(c.Links, m.Links)
	}
	return c
}

// DependsOnID reports whether the metadata lists id as a blocking dependency.
func (m TaskMeta) DependsOnID(id string) bool {
	for _, dep := range m.DependencyIDs {
		if dep == id {
			return true
		}
	}
	return false
}
