package voting

import (
	"time"

	"github.com/computersciencehouse/quickpoll/logging"
	"github.com/computersciencehouse/quickpoll/validation"
	"github.com/sirupsen/logrus"
)

const DefaultPollDays = 30

// DefaultExpireAt is now plus DefaultPollDays calendar days at minute precision.
func DefaultExpireAt(now time.Time) string {
	return now.AddDate(0, 0, DefaultPollDays).Format(validation.DateTimeLayout)
}

// expiryLayouts are tried in order. Layouts without a zone are read in the caller's location.
var expiryLayouts = []string{
	validation.DateTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseExpireAt reads expireAt with the first layout that accepts it.
func ParseExpireAt(expireAt string, loc *time.Location) (time.Time, bool) {
	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, expireAt, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Expired compares at minute granularity: a poll expiring at 12:00 still accepts
// writes during 12:00 and is expired from 12:01. A value that does not parse never expires.
func Expired(expireAt string, now time.Time) bool {
	deadline, ok := ParseExpireAt(expireAt, now.Location())
	if !ok {
		logging.Logger.WithFields(logrus.Fields{
			"module":   "voting",
			"method":   "Expired",
			"expireAt": expireAt,
		}).Warn("unparsable poll expiration, treating poll as open")
		return false
	}

	return now.Truncate(time.Minute).After(deadline.Truncate(time.Minute))
}
