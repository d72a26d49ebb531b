package finance

import "time"

// getEasternTime returns America/New_York location, falling back to fixed EST if tzdata is missing.
func getEasternTime() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*3600)
	}
	return loc
}

// exchangeLocation resolves the exchange clock from the chart meta. Spark
// responses carry no meta, so they fall back to Eastern time.
func exchangeLocation(timezone string, gmtOffset int, hasMeta bool) *time.Location {
	if !hasMeta {
		return getEasternTime()
	}
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtOffset)
}
