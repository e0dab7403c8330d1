package pkgname_test

import (
	"testing"

	"github.com/ember-lang/ember/internal/pkgname"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		path string
		name string
		ok   bool
	}{
		{"math", "math", true},
		{"math.ember", "math", true},
		{"lib/math.ember", "math", true},
		{"lib/math", "math", true},
		{"lib/", "", false},
		{"lib/.ember", "", false},
		{".ember", "", false},
		{"a.b/math", "math", true},
	}
	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			name, ok := pkgname.Extract(c.path)
			require.Equal(t, c.ok, ok)
			if ok {
				require.Equal(t, c.name, name)
			}
		})
	}
}

func TestHashDeterministic(t *testing.T) {
	a := pkgname.Hash("lib/math.ember")
	b := pkgname.Hash("other/math.ember")
	require.Equal(t, a, b)
}

func TestHashInvalid(t *testing.T) {
	require.Equal(t, pkgname.Invalid, pkgname.Hash("lib/"))
}

func TestHashEmptyString(t *testing.T) {
	require.Equal(t, pkgname.Invalid, pkgname.Hash(".ember"))
}
