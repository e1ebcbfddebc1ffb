package esg

// MostRecent returns the submission with the latest TimePeriod. subs must be
// in insertion order; among equal timestamps the last inserted wins.
func MostRecent(subs []Submission) (Submission, error) {
	if len(subs) == 0 {
		return Submission{}, ErrNoData
	}
	latest := 0
	for i := 1; i < len(subs); i++ {
		if !subs[i].TimePeriod.Before(subs[latest].TimePeriod) {
			latest = i
		}
	}
	return subs[latest], nil
}
