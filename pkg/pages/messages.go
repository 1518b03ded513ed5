package pages

// Codes accepted in the error_code and msg query parameters of the landing page.
const (
	MsgBadKey          = "bad_key"
	MsgMissingKey      = "missing_key"
	MsgVideoLoad       = "v01"
	MsgScreenRequest   = "v02"
	MsgScreenLoad      = "s01"
	MsgSurveyCompleted = "survey_completed"
	MsgUnknown         = "unknown"
	MsgIncompleteOutro = "incomplete_outro"
	MsgNoStart         = "no_start"
	MsgKeySent         = "key_sent"
	MsgTooManyAttempts = "too_many_attempts"
)

var bubbleMessages = map[string]string{
	MsgBadKey:          "Invalid key.",
	MsgMissingKey:      "Missing access key.",
	MsgVideoLoad:       "Failed to load videos. Please try starting the survey again.",
	MsgScreenRequest:   "Failed to load videos. Please try starting the survey again.",
	MsgScreenLoad:      "An error occured with loading the next page. Please contact UCI MIND IT and provide your access key.",
	MsgSurveyCompleted: "This survey has been completed. Thank you for your participation!",
	MsgUnknown:         "Unknown error.",
	MsgIncompleteOutro: "Please answer every question to proceed.",
	MsgNoStart:         "Please begin the survey by providing your access key.",
	MsgKeySent:         "If this email address belongs to a study participant, we have sent the access key to it. Please check your inbox.",
	MsgTooManyAttempts: "Too many attempts. Please wait a minute and try again.",
}

// BubbleMessage returns the text for code. Unknown codes map to the "unknown" message.
func BubbleMessage(code string) (msg string, known bool) {
	msg, known = bubbleMessages[code]
	if !known {
		return bubbleMessages[MsgUnknown], false
	}
	return msg, true
}
