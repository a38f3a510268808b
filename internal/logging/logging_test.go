package logging

import "testing"

func TestMaskDestination(t *testing.T) {
	cases := map[string]string{
		"":                  "****",
		"abc":               "****",
		"+971501234567":     "+9****67",
		"someone@rahal.app": "so****pp",
	}
	for in, want := range cases {
		if got := MaskDestination(in); got != want {
			t.Errorf("MaskDestination(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewDevelopment(t *testing.T) {
	log, err := New(false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("ok")
}
