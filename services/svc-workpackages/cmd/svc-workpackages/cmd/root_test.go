package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	t.Parallel()

	root := RootCmd()

	require.True(t, root.SilenceUsage)

	cases := []struct {
		args     []string
		expected string
	}{
		{args: []string{"serve"}, expected: "serve"},
		{args: []string{"migrate"}, expected: "migrate"},
	}

	for _, tc := range cases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()

			found, _, err := root.Find(tc.args)

			require.NoError(t, err)
			require.Equal(t, tc.expected, found.Name())
			require.NotNil(t, found.RunE)
		})
	}
}
