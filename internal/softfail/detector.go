// Package softfail detects provider-side failures disguised as successful
// responses. Some providers return HTTP 200 with an apologetic
// natural-language error instead of an error status; from the caller's
// point of view that is indistinguishable from a real answer unless the
// content itself is inspected.
package softfail

import "strings"

// patterns is an ordered priority list of known "apologetic failure"
// phrases. Matching is case-insensitive substring; the first match wins.
var patterns = []string{
	"unable to connect",
	"i'm unable to connect",
	"cannot connect to the",
	"api key needs credits",
	"your credit balance is too low",
	"model is currently overloaded",
	"currently experiencing high demand",
	"service is temporarily unavailable",
	"an error occurred while processing",
	"i am currently unable to process",
	"please try again later",
	"something went wrong on our end",
}

// Detection is the result of scanning one response body.
type Detection struct {
	IsSoftFailure bool
	Pattern       string // the matched phrase, empty when no match
}

// Detect scans response content for known provider-failure phrases. Empty
// input is never a soft failure. Callers must invoke this on every
// otherwise-successful response and treat a positive match exactly like a
// provider error.
func Detect(text string) Detection {
	if text == "" {
		return Detection{}
	}

	lower := strings.ToLower(text)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return Detection{IsSoftFailure: true, Pattern: p}
		}
	}

	return Detection{}
}
