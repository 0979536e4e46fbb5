package format

import "time"

// Epoch is the zero point of record timestamps.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeToStamp converts t to whole seconds since Epoch, saturating at the
// uint32 range.
func TimeToStamp(t time.Time) uint32 {
	secs := t.Unix() - Epoch.Unix()
	switch {
	case secs < 0:
		return 0
	case secs > int64(^uint32(0)):
		return ^uint32(0)
	}
	return uint32(secs)
}

// StampToTime converts a record timestamp back to a UTC time.
func StampToTime(v uint32) time.Time {
	return Epoch.Add(time.Duration(v) * time.Second)
}
