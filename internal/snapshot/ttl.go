package snapshot

import "time"

// TTLClass is a config-driven cache lifetime bucket
type TTLClass string

// TTL classes
const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet holds the cache lifetime of each class
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts TTLs in seconds to durations. Zero selects the default
// of the class and a negative value disables caching for it.
func NewTTLSet(short, medium, long int) TTLSet {
	return TTLSet{
		Short:  secondsOrDefault(short, 10*time.Second),
		Medium: secondsOrDefault(medium, time.Minute),
		Long:   secondsOrDefault(long, 5*time.Minute),
	}
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the lifetime of class
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// ClassFor maps a snapshot key to its TTL class. Prices and account totals
// move fastest; the leaderboard and since-inception series barely move.
func ClassFor(key string) TTLClass {
	switch key {
	case KeyCryptoPrices, KeyAccountTotals:
		return TTLShort
	case KeyLeaderboard, KeySinceInception:
		return TTLLong
	}
	return TTLMedium
}
