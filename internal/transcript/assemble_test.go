package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAddsTrailingSpacePerSegment(t *testing.T) {
	buffer := Append("", "I started with")
	buffer = Append(buffer, "a monolith")
	require.Equal(t, "I started with a monolith ", buffer)
}

func TestAppendIgnoresEmptySegments(t *testing.T) {
	require.Equal(t, "kept ", Append(Append("kept ", "   "), ""))
}

func TestAssembleNormalizesWhitespace(t *testing.T) {
	out := Assemble([]string{"  we  sharded ", "by   tenant", ""})
	require.Equal(t, "we sharded by tenant", out)
}

func TestAssembleEmpty(t *testing.T) {
	require.Equal(t, "", Assemble(nil))
	require.Equal(t, "", Assemble([]string{" ", ""}))
}
