package utils

import "time"

// Norwegian time location (CET/CEST). Vipps due dates and billing month keys
// are calendar concepts and must be computed in the merchant's timezone.
var osloLoc = func() *time.Location {
	if loc, err := time.LoadLocation("Europe/Oslo"); err == nil {
		return loc
	}
	return time.FixedZone("CET", 1*3600)
}()

func NowUnixSeconds() int64 { return time.Now().Unix() }

func NowOslo() time.Time { return time.Now().In(osloLoc) }

// DateString formats a time as the YYYY-MM-DD form Vipps expects for charge
// due dates.
func DateString(t time.Time) string {
	return t.In(osloLoc).Format("2006-01-02")
}

// MonthBounds returns the [start, end) unix-second bounds of t's calendar
// month in Oslo time.
func MonthBounds(t time.Time) (int64, int64) {
	t = t.In(osloLoc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, osloLoc)
	return start.Unix(), start.AddDate(0, 1, 0).Unix()
}

var norwegianMonths = [...]string{
	"januar", "februar", "mars", "april", "mai", "juni",
	"juli", "august", "september", "oktober", "november", "desember",
}

// NorwegianMonth returns the lowercase Norwegian month name, used in the
// sponsor-visible charge descriptions.
func NorwegianMonth(t time.Time) string {
	return norwegianMonths[t.In(osloLoc).Month()-1]
}
