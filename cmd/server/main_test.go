package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "sweep-leases"}, names)
	assert.NotNil(t, root.RunE)
}

func TestAppCloseRunsInReverse(t *testing.T) {
	var order []int
	a := &app{}
	a.onClose(func() { order = append(order, 1) })
	a.onClose(func() { order = append(order, 2) })
	a.close()
	assert.Equal(t, []int{2, 1}, order)
}

type stubSweeper struct {
	n   int
	err error
}

func (s stubSweeper) RunNow(context.Context) (int, error) { return s.n, s.err }

func TestRunSweep(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runSweep(context.Background(), stubSweeper{n: 3}, &out))
		assert.Equal(t, "expired 3 lease(s)\n", out.String())
	})

	t.Run("storage failure fails the command", func(t *testing.T) {
		failure := errors.New("connection reset")
		var out bytes.Buffer
		err := runSweep(context.Background(), stubSweeper{n: 1, err: failure}, &out)
		require.ErrorIs(t, err, failure)
		assert.Equal(t, "expired 1 lease(s)\n", out.String())
	})
}
