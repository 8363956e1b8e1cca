package models

import "testing"

func TestProviderType_IsSupported(t *testing.T) {
	for _, family := range SupportedProviderTypes {
		if !family.IsSupported() {
			t.Errorf("Expected %s to be supported", family)
		}
	}

	for _, family := range []ProviderType{"cohere", "mistral", "", "OpenAI"} {
		if family.IsSupported() {
			t.Errorf("Expected %s to be unsupported", family)
		}
	}
}

func TestProvider_Eligible(t *testing.T) {
	base := Provider{
		ProviderType: ProviderTypeOpenAI,
		EncryptedKey: "aa:bb:cc",
		Active:       true,
	}
	if !base.Eligible() {
		t.Error("Expected base provider to be eligible")
	}

	inactive := base
	inactive.Active = false
	if inactive.Eligible() {
		t.Error("Inactive provider must not be eligible")
	}

	noKey := base
	noKey.EncryptedKey = ""
	if noKey.Eligible() {
		t.Error("Provider without a credential must not be eligible")
	}

	unknown := base
	unknown.ProviderType = "cohere"
	if unknown.Eligible() {
		t.Error("Unsupported family must not be eligible")
	}
}

func TestNormalizeTaskType(t *testing.T) {
	cases := []struct {
		in   string
		want TaskType
	}{
		{"coaching", TaskCoaching},
		{"planning", TaskPlanning},
		{"chart_insight", TaskChartInsight},
		{"text_analysis", TaskTextAnalysis},
		{"image_suitable", TaskImageSuitable},
		{"general", TaskGeneral},
		{"", TaskDefault},
		{"something_else", TaskDefault},
	}

	for _, tc := range cases {
		if got := NormalizeTaskType(tc.in); got != tc.want {
			t.Errorf("NormalizeTaskType(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
