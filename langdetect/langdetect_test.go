package langdetect

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		text string
		code string
	}{
		{"take a screenshot of my desktop please", "en"},
		{"bitte mach einen Screenshot von meinem Bildschirm", "de"},
		{"veuillez prendre une capture d'écran de mon bureau", "fr"},
	}
	for _, tt := range tests {
		code, name := Detect(tt.text)
		if code != tt.code {
			t.Errorf("Detect(%q) code = %q, want %q", tt.text, code, tt.code)
		}
		if name == "" || name == "Unknown" {
			t.Errorf("Detect(%q) name = %q, want a display name", tt.text, name)
		}
	}
}

func TestDetectEmpty(t *testing.T) {
	code, name := Detect("   ")
	if code != "" || name != "Unknown" {
		t.Errorf("Detect(blank) = %q, %q; want \"\", Unknown", code, name)
	}
}
