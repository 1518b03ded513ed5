package utils

import "time"

// RecordTimestampLayout is the timestamp format expected by the records service.
// All record timestamps are UTC, matching what the browser reports.
const RecordTimestampLayout = "2006-01-02 15:04:05"

func FormatRecordTimestamp(t time.Time) string {
	return t.UTC().Format(RecordTimestampLayout)
}

func IsRecordTimestamp(value string) bool {
	_, err := time.Parse(RecordTimestampLayout, value)
	return err == nil
}
