package ring_test

import (
	"github.com/brickingsoft/staticd/pkg/ring"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestOperation_PrepareReadv(t *testing.T) {
	op := ring.AcquireOperation()
	defer ring.ReleaseOperation(op)

	a, b := make([]byte, 16), make([]byte, 8)
	op.PrepareReadv(3, [][]byte{a, nil, b}, 64)
	op.SetUserdata(7)

	require.Equal(t, ring.ReadvOp, op.Kind())
	require.Equal(t, 3, op.Fd())
	require.Equal(t, uint64(64), op.Offset())
	require.Equal(t, uint64(7), op.Userdata())
	require.Equal(t, 24, op.Len())
	require.Len(t, op.Vectors(), 3)
}

func TestOperation_PrepareWriteFixed(t *testing.T) {
	op := ring.AcquireOperation()
	defer ring.ReleaseOperation(op)

	buf := make([]byte, 1024)
	op.PrepareWriteFixed(5, buf[:100], 2, 0)

	b, index := op.Fixed()
	require.Equal(t, ring.WriteFixedOp, op.Kind())
	require.Equal(t, 2, index)
	require.Len(t, b, 100)
	require.Equal(t, 100, op.Len())
	require.Equal(t, "write_fixed", op.Kind().String())
}

func TestReleaseOperation_Reset(t *testing.T) {
	op := ring.AcquireOperation()
	op.PrepareReadFixed(1, make([]byte, 4), 0, 9)
	op.SetUserdata(1)
	ring.ReleaseOperation(op)

	op = ring.AcquireOperation()
	defer ring.ReleaseOperation(op)
	b, index := op.Fixed()
	require.Equal(t, ring.NopOp, op.Kind())
	require.Nil(t, b)
	require.Equal(t, -1, index)
	require.Zero(t, op.Userdata())
}
