package transcript

import "testing"

func TestAssemble(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     string
	}{
		{name: "nil", segments: nil, want: ""},
		{name: "empty segments", segments: []string{"", "   ", "\t"}, want: ""},
		{name: "single", segments: []string{" hello world "}, want: "hello world"},
		{name: "multiple trimmed", segments: []string{" Hello,", " this is ", "a test. "}, want: "Hello, this is a test."},
		{name: "internal whitespace collapsed", segments: []string{"one  two", "three\tfour"}, want: "one two three four"},
		{name: "blank segment skipped", segments: []string{"start", "  ", "end"}, want: "start end"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Assemble(tc.segments); got != tc.want {
				t.Fatalf("Assemble(%q) = %q, want %q", tc.segments, got, tc.want)
			}
		})
	}
}
