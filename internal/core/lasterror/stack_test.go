// Package lasterror_test contains tests for the lasterror package.
package lasterror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/pkgconn/internal/core/lasterror"
)

func TestStackError_Templates(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		code     string
		params   map[string]string
		expected string
	}{
		{"template without params", "errorId", nil, "error {test}"},
		{"unknown code", "unknownId", nil, "Error: code `unknownId`"},
		{"template with params", "errorId", map[string]string{"test": "test parsing"}, "error test parsing"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := lasterror.NewStack(map[string]string{"errorId": "error {test}"})
			assert.Equal(t, tc.expected, s.Error(tc.code, tc.params))
			assert.Equal(t, tc.expected, s.Last())
		})
	}
}

func TestStack_MostRecentFirst(t *testing.T) {
	t.Parallel()
	s := lasterror.NewStack(nil)
	s.Push(errors.New("first"))
	s.Push(errors.New("second"))

	assert.True(t, s.HasErrors())
	assert.Equal(t, "second", s.Last())
	assert.Equal(t, "first", s.Last())
	assert.Equal(t, "", s.Last(), "Empty stack should yield an empty message")
	assert.False(t, s.HasErrors())
}

func TestStack_BoundedHistory(t *testing.T) {
	t.Parallel()
	s := lasterror.NewStack(nil)
	for i := 0; i < lasterror.DefaultStackSize+3; i++ {
		s.Push(fmt.Errorf("error %d", i))
	}

	all := s.All()
	require.Len(t, all, lasterror.DefaultStackSize)
	assert.Equal(t, "error 7", all[0])
	assert.Equal(t, "error 3", all[len(all)-1])
	assert.Empty(t, s.All(), "All should drain the stack")
}

func TestStack_SetSizeTrimsOldest(t *testing.T) {
	t.Parallel()
	s := lasterror.NewStack(nil)
	s.Push(errors.New("a"))
	s.Push(errors.New("b"))
	s.Push(errors.New("c"))

	s.SetSize(2)
	assert.Equal(t, 2, s.Size())
	assert.Equal(t, []string{"c", "b"}, s.All())

	s.SetSize(0)
	assert.Equal(t, 2, s.Size(), "Non-positive sizes should be ignored")
}

func TestStack_PushRendersWithOverrides(t *testing.T) {
	t.Parallel()
	s := lasterror.NewStack(map[string]string{lasterror.CodeNotFound: "missing: {file}"})

	err := lasterror.File(lasterror.CodeNotFound, "/tmp/composer.json")
	msg := s.Push(fmt.Errorf("loading manifest: %w", err))
	assert.Equal(t, "missing: /tmp/composer.json", msg)

	s.SetMessages(nil)
	msg = s.Push(err)
	assert.Equal(t, `File not found "/tmp/composer.json" or empty.`, msg)
}

func TestError_UnwrapsToKind(t *testing.T) {
	t.Parallel()
	err := lasterror.New(lasterror.CodePackageNotFound, map[string]string{"name": "acme/x", "type": "any"})

	assert.ErrorIs(t, err, lasterror.ErrNoPackage)
	assert.NotErrorIs(t, err, lasterror.ErrNotFound)
	assert.Equal(t, `No package found for given name "acme/x" and type any{hint}`, err.Error())
}

func TestRender_KeepsUnknownPlaceholders(t *testing.T) {
	t.Parallel()
	msg := lasterror.Render(lasterror.CodeNotJSON, lasterror.DefaultMessages, map[string]string{"file": "a.json"})
	assert.Equal(t, `"a.json" does not contain valid JSON: {msg}`, msg)
}
