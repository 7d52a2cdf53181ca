package handlers

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"/start", "/start", true},
		{"  /START  ", "/start", true},
		{"/start@amit_bot", "/start", true},
		{"/weather Rome", "/weather", true},
		{"weather in Rome", "", false},
		{"/", "", false},
		{"/@bot", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseCommand(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
