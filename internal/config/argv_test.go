package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "whitespace only", input: "   ", want: nil},
		{name: "simple", input: "xclip -selection clipboard", want: []string{"xclip", "-selection", "clipboard"}},
		{name: "double quotes", input: `notify-send "hello world"`, want: []string{"notify-send", "hello world"}},
		{name: "single quotes", input: `sh -c 'cat > out'`, want: []string{"sh", "-c", "cat > out"}},
		{name: "escaped space", input: `cmd a\ b`, want: []string{"cmd", "a b"}},
		{name: "unterminated quote", input: `cmd "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `cmd oops\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			argv, err := parseArgv(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, argv)
		})
	}
}
