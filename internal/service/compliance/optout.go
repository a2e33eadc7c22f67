package compliance

import "strings"

var optOutPhrases = []string{
	"stop calling",
	"remove my number",
	"opt out",
	"do not call",
	"don't call",
	"take me off",
	"unsubscribe",
	"remove me from your list",
	"put me on your do not call list",
	"stop contacting me",
	"no more calls",
}

// DetectOptOut reports whether a transcript contains an opt-out phrase
func DetectOptOut(transcript string) bool {
	if transcript == "" {
		return false
	}
	lower := strings.ToLower(transcript)
	// curly apostrophes from speech-to-text
	lower = strings.ReplaceAll(lower, "’", "'")
	for _, phrase := range optOutPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
