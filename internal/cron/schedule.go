package cron

import "time"

// Schedule decides when a job fires.
type Schedule interface {
	// First returns the delay before the initial run.
	First(now time.Time) time.Duration
	// Next returns the delay between subsequent runs.
	Next(now time.Time) time.Duration
}

// Every runs immediately and then on a fixed interval.
type Every time.Duration

func (e Every) First(time.Time) time.Duration { return 0 }

func (e Every) Next(time.Time) time.Duration { return time.Duration(e) }

// DailyAtMidnight runs at the next local midnight and every 24h after.
type DailyAtMidnight struct {
	Location *time.Location
}

func (d DailyAtMidnight) First(now time.Time) time.Duration {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return midnight.Sub(local)
}

func (d DailyAtMidnight) Next(time.Time) time.Duration { return 24 * time.Hour }
