package models

import "time"

const (
	SeasonSpring = "Spring"
	SeasonSummer = "Summer"
	SeasonFall   = "Fall"
	SeasonWinter = "Winter"
)

// SeasonOrder is the display order of seasons in reports.
var SeasonOrder = []string{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

// SeasonRank returns the 1-based position of a season in SeasonOrder, or
// len(SeasonOrder)+1 for anything else.
func SeasonRank(season string) int {
	for i, s := range SeasonOrder {
		if s == season {
			return i + 1
		}
	}
	return len(SeasonOrder) + 1
}

// SeasonOf maps a calendar month (1-12) to its season.
func SeasonOf(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

// DateKeyOf encodes a calendar date as YYYYMMDD.
func DateKeyOf(t time.Time) int64 {
	return int64(t.Year())*10000 + int64(t.Month())*100 + int64(t.Day())
}

// NewDate builds the date dimension row for t.
func NewDate(t time.Time) Date {
	return Date{
		DateKey: DateKeyOf(t),
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Quarter: (int(t.Month())-1)/3 + 1,
		Season:  SeasonOf(t.Month()),
	}
}

// TimeKey is a time of day encoded as HHMMSS.
type TimeKey int64

func TimeKeyOf(hour, minute, second int) TimeKey {
	return TimeKey(hour*10000 + minute*100 + second)
}

func (k TimeKey) Hour() int   { return int(k / 10000) }
func (k TimeKey) Minute() int { return int(k/100) % 100 }
