package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// TestDurationUnmarshalYAML tests that both bare seconds and duration
// strings decode to the same values.
func TestDurationUnmarshalYAML(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		yaml     string
		expected time.Duration
	}{
		{name: "bare integer seconds", yaml: "value: 3600", expected: time.Hour},
		{name: "bare zero", yaml: "value: 0", expected: 0},
		{name: "duration string seconds", yaml: "value: 10s", expected: 10 * time.Second},
		{name: "duration string composite", yaml: "value: 1h30m", expected: 90 * time.Minute},
		{name: "quoted duration string", yaml: `value: "45s"`, expected: 45 * time.Second},
		{name: "duration string milliseconds", yaml: "value: 300ms", expected: 300 * time.Millisecond},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var doc struct {
				Value Duration `yaml:"value"`
			}
			if err := yaml.Unmarshal([]byte(tc.yaml), &doc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.Value.Duration() != tc.expected {
				t.Errorf("got %v, expected %v", doc.Value.Duration(), tc.expected)
			}
		})
	}
}

// TestDurationUnmarshalYAMLInvalid tests that junk values fail decoding.
func TestDurationUnmarshalYAMLInvalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		yaml string
	}{
		{name: "unitless string", yaml: `value: "3600"`},
		{name: "garbage string", yaml: "value: soon"},
		{name: "list", yaml: "value: [10]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var doc struct {
				Value Duration `yaml:"value"`
			}
			if err := yaml.Unmarshal([]byte(tc.yaml), &doc); err == nil {
				t.Errorf("expected an error, got value %v", doc.Value.Duration())
			}
		})
	}
}

// TestDurationMarshalYAML tests the duration string encoding.
func TestDurationMarshalYAML(t *testing.T) {
	t.Parallel()

	doc := struct {
		Value Duration `yaml:"value"`
	}{Value: Duration(90 * time.Second)}

	out, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "value: 1m30s\n" {
		t.Errorf("got %q, expected %q", out, "value: 1m30s\n")
	}
}
