package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppState_CloneIsDeep(t *testing.T) {
	due := Date{Year: 2026, Month: time.March, Day: 4}
	orig := AppState{
		Tasks:   []Task{{ID: "a", NextActions: []string{"call vendor"}}},
		DoneIDs: []string{"b"},
		Meta: map[string]TaskMeta{
			"a": {Due: &due, DependencyIDs: []string{"b"}, Links: []Link{{Title: "brief", URL: "https://x"}}},
		},
	}

	c := orig.Clone()
	c.Tasks[0].NextActions[0] = "changed"
	c.DoneIDs[0] = "z"
	c.Meta["a"].Due.Day = 9
	c.Meta["a"].DependencyIDs[0] = "z"
	c.Meta["a"].Links[0].URL = "https://y"

	assert.Equal(t, "call vendor", orig.Tasks[0].NextActions[0])
	assert.Equal(t, "b", orig.DoneIDs[0])
	assert.Equal(t, 4, orig.Meta["a"].Due.Day)
	assert.Equal(t, "b", orig.Meta["a"].DependencyIDs[0])
	assert.Equal(t, "https://x", orig.Meta["a"].Links[0].URL)
}

func TestAppState_ActiveTasksKeepsOrder(t *testing.T) {
	s := AppState{
		Tasks:   []Task{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		DoneIDs: []string{"2"},
	}

	active := s.ActiveTasks()
	require.Len(t, active, 2)
	assert.Equal(t, "1", active[0].ID)
	assert.Equal(t, "3", active[1].ID)
	assert.True(t, s.IsDone("2"))
	assert.False(t, s.IsDone("1"))
}

func TestAppState_NormalizeSerializesEmptyCollections(t *testing.T) {
	var s AppState
	s.Normalize()

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":[],"doneIds":[],"meta":{}}`, string(data))
}

func TestDate_DaysSince(t *testing.T) {
	base := Date{Year: 2026, Month: time.March, Day: 1}

	assert.Equal(t, 0, base.DaysSince(base))
	assert.Equal(t, -1, Date{Year: 2026, Month: time.February, Day: 28}.DaysSince(base))
	assert.Equal(t, 31, Date{Year: 2026, Month: time.April, Day: 1}.DaysSince(base))
}

func TestDate_JSON(t *testing.T) {
	var m TaskMeta
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2026-10-20","lastUpdated":1700000000000}`), &m))

	require.NotNil(t, m.Due)
	assert.Equal(t, "2026-10-20", m.Due.String())
	require.NotNil(t, m.LastUpdated)
	assert.Equal(t, int64(1700000000000), m.LastUpdated.Time().UnixMilli())

	err := json.Unmarshal([]byte(`{"due":"20-10-2026"}`), &m)
	assert.Error(t, err)
}
