package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		mode string
		rest []string
	}{
		{"flag", []string{"--mode=ticket-worker", "--config=c.yaml"}, ModeWorker, []string{"--config=c.yaml"}},
		{"shorthand", []string{"reprint", "--order-id=1001"}, ModeReprint, []string{"--order-id=1001"}},
		{"alias", []string{"--mode=worker"}, ModeWorker, nil},
		{"intake", []string{"intake", "--max-concurrent=5"}, ModeIntake, []string{"--max-concurrent=5"}},
		{"none", []string{"--config=c.yaml"}, "", []string{"--config=c.yaml"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mode, rest, err := ParseMode(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.mode, mode)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestParseModeUnknown(t *testing.T) {
	_, _, err := ParseMode([]string{"--mode=kitchen"})
	assert.Error(t, err)
}
