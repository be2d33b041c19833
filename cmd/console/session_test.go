package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"goc4/pkg/vfs"
)

func TestNeedsMore(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"int x = 1;", false},
		{"main() {", true},
		{"main() {\n  if (x) {", true},
		{"main() {\n  return 1;\n}", false},
		{`printf("{");`, false},
		{"// {", false},
	}
	for _, tt := range tests {
		if got := NeedsMore(tt.code); got != tt.want {
			t.Errorf("NeedsMore(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestSessionRun(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)

	require.NoError(t, s.Add("int base = 40;"))
	require.NoError(t, s.Add("int add(int a, int b) {\n  return a + b;\n}"))
	require.NoError(t, s.Add(`main() { printf("running\n"); return add(base, 2); }`))

	more, err := s.Command(":run")
	require.NoError(t, err)
	require.True(t, more)
	require.Equal(t, "running\n=> 42\n", out.String())

	out.Reset()
	_, err = s.Command(":state")
	require.NoError(t, err)
	require.Contains(t, out.String(), `"halted": true`)

	out.Reset()
	_, err = s.Command(":asm")
	require.NoError(t, err)
	require.Contains(t, out.String(), ".func add a b")

	out.Reset()
	_, err = s.Command(":ast")
	require.NoError(t, err)
	require.Contains(t, out.String(), "int add(int a, int b)")
}

func TestSessionRejectsBadChunk(t *testing.T) {
	s := NewSession(&bytes.Buffer{})
	require.NoError(t, s.Add("int x = 1;"))

	err := s.Add("int y = ;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse error")
	require.Equal(t, "int x = 1;", s.Source())
}

func TestSessionCommands(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)

	_, err := s.Command(":state")
	require.NoError(t, err)
	require.Contains(t, out.String(), "nothing has run yet")

	require.NoError(t, s.Add("int x = 1;"))
	_, err = s.Command(":run")
	require.Error(t, err, "no main")
	require.Contains(t, err.Error(), "no main function")

	_, err = s.Command(":reset")
	require.NoError(t, err)
	require.Empty(t, s.Source())

	more, err := s.Command(":quit")
	require.NoError(t, err)
	require.False(t, more)
}

func TestSessionSnippets(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)

	_, err := s.Command(":ls")
	require.Error(t, err, "store not attached")

	s.Snippets = vfs.NewStore()
	require.NoError(t, s.Add("int sq(int n) { return n * n; }"))
	require.NoError(t, s.Add("main() { return sq(6); }"))

	_, err = s.Command(":save sq")
	require.NoError(t, err)
	_, err = s.Command(":save ../x")
	require.ErrorIs(t, err, vfs.ErrInvalidName)

	_, err = s.Command(":reset")
	require.NoError(t, err)
	require.NoError(t, s.Add("int other = 1;"))

	out.Reset()
	_, err = s.Command(":load sq")
	require.NoError(t, err)
	require.Equal(t, "loaded sq\n", out.String())
	require.Equal(t, "int sq(int n) { return n * n; }\nmain() { return sq(6); }", s.Source())

	out.Reset()
	_, err = s.Command(":run")
	require.NoError(t, err)
	require.Equal(t, "=> 36\n", out.String())

	_, err = s.Command(":load missing")
	require.ErrorIs(t, err, vfs.ErrNotFound)
	require.Contains(t, s.Source(), "sq(6)")

	out.Reset()
	_, err = s.Command(":ls")
	require.NoError(t, err)
	require.Equal(t, "sq\n", out.String())

	_, err = s.Command(":rm sq")
	require.NoError(t, err)
	require.Empty(t, s.Snippets.List())

	_, err = s.Command(":save")
	require.Error(t, err)
}
