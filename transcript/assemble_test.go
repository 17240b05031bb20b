package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssemblerAppendReturnsCumulativeText(t *testing.T) {
	t.Parallel()

	var a Assembler
	require.Equal(t, "Hel", a.Append("Hel"))
	require.Equal(t, "Hello", a.Append("lo"))
	require.Equal(t, "Hello there", a.Append(" there"))
	require.Equal(t, "Hello there", a.String())
	require.Equal(t, len("Hello there"), a.Len())
}

func TestAssemblerPreservesArrivalOrderVerbatim(t *testing.T) {
	t.Parallel()

	var a Assembler
	a.Append("b")
	a.Append("a")
	a.Append("a")
	require.Equal(t, "baa", a.String())
}

func TestAssemblerEmptyDeltaDoesNotGrow(t *testing.T) {
	t.Parallel()

	var a Assembler
	a.Append("hello")
	require.Equal(t, "hello", a.Append(""))
}

func TestAssemblerZeroValueIsEmpty(t *testing.T) {
	t.Parallel()

	var a Assembler
	require.Empty(t, a.String())
	require.Zero(t, a.Len())
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello world", Normalize("  hello \n\t world  "))
	require.Equal(t, "hello world", Normalize("hello world"))
}

func TestNormalizeWhitespaceOnlyIsEmpty(t *testing.T) {
	t.Parallel()

	require.Empty(t, Normalize("   \n\t "))
	require.Empty(t, Normalize(""))
}
