package softfail

import "testing"

func TestDetect_SoftFailures(t *testing.T) {
	cases := []struct {
		text        string
		wantPattern string
	}{
		{"I'm unable to connect to the service right now.", "unable to connect"},
		{"Sorry, your API key needs credits before I can help.", "api key needs credits"},
		{"Your credit balance is too low to run this request.", "your credit balance is too low"},
		{"The model is currently overloaded with other requests.", "model is currently overloaded"},
		{"We are currently experiencing high demand. Please retry.", "currently experiencing high demand"},
		{"An error occurred while processing your request.", "an error occurred while processing"},
		{"SERVICE IS TEMPORARILY UNAVAILABLE", "service is temporarily unavailable"},
	}

	for _, tc := range cases {
		det := Detect(tc.text)
		if !det.IsSoftFailure {
			t.Errorf("Detect(%q): expected soft failure", tc.text)
			continue
		}
		if det.Pattern != tc.wantPattern {
			t.Errorf("Detect(%q): pattern = %q, want %q", tc.text, det.Pattern, tc.wantPattern)
		}
	}
}

func TestDetect_GenuineResponses(t *testing.T) {
	cases := []string{
		"Here is your pipeline forecast for Q3: deals are trending up 12%.",
		"Your top three coaching points for this call are preparation, pacing and follow-up.",
		"The chart shows a steady increase in monthly recurring revenue.",
		"Connectivity between your CRM stages looks healthy.",
	}

	for _, text := range cases {
		if det := Detect(text); det.IsSoftFailure {
			t.Errorf("Detect(%q): false positive on pattern %q", text, det.Pattern)
		}
	}
}

func TestDetect_EmptyInput(t *testing.T) {
	if det := Detect(""); det.IsSoftFailure {
		t.Error("Empty input must never be a soft failure")
	}
}

func TestDetect_FirstMatchWins(t *testing.T) {
	// Text matching several patterns reports the highest-priority one
	text := "I'm unable to connect; the model is currently overloaded, please try again later."
	det := Detect(text)
	if !det.IsSoftFailure {
		t.Fatal("Expected soft failure")
	}
	if det.Pattern != "unable to connect" {
		t.Errorf("Expected the first pattern in priority order, got %q", det.Pattern)
	}
}
