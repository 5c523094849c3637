package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateParseAndFormat(t *testing.T) {
	d, err := ParseDate("2026-08-30")
	require.NoError(t, err)
	require.Equal(t, "2026-08-30", d.String())

	_, err = ParseDate("30/08/2026")
	require.Error(t, err)
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2026, time.August, 30)

	require.Equal(t, "2026-09-01", d.AddDays(2).String())
	require.Equal(t, "2026-08-21", d.AddDays(-9).String())
	require.Equal(t, 9, d.DaysUntil(d.AddDays(9)))
	require.True(t, d.Before(d.AddDays(1)))
	require.True(t, d.AddDays(1).After(d))
	require.True(t, d.Equal(DateOf(time.Date(2026, time.August, 30, 18, 45, 0, 0, time.FixedZone("CEST", 2*3600)))))
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		Day Date `json:"day"`
	}

	out, err := json.Marshal(payload{Day: NewDate(2026, time.August, 30)})
	require.NoError(t, err)
	require.JSONEq(t, `{"day":"2026-08-30"}`, string(out))

	var in payload
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2026-01-02"}`), &in))
	require.Equal(t, NewDate(2026, time.January, 2), in.Day)
}
