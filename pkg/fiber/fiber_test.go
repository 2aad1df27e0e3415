package fiber_test

import (
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/staticd/pkg/fiber"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestFiber_CompletesWithoutSuspend(t *testing.T) {
	ran := false
	f := fiber.New(1, "local", func(f *fiber.Fiber[string]) error {
		ran = true
		require.Equal(t, "local", f.Local)
		return nil
	})
	require.Equal(t, fiber.Runnable, f.State())
	require.False(t, f.Start())
	require.True(t, ran)
	require.Equal(t, fiber.Completed, f.State())
	require.NoError(t, f.Err())
}

func TestFiber_ResumeInjectsValue(t *testing.T) {
	var got []int32
	f := fiber.New(7, struct{}{}, func(f *fiber.Fiber[struct{}]) error {
		for i := 0; i < 3; i++ {
			v, err := f.Suspend()
			if err != nil {
				return err
			}
			got = append(got, v)
		}
		return nil
	})
	require.Equal(t, uint64(7), f.ID())
	require.True(t, f.Start())
	require.Equal(t, fiber.Suspended, f.State())
	require.True(t, f.Resume(10))
	require.Equal(t, int32(10), f.Current())
	require.True(t, f.Resume(20))
	require.False(t, f.Resume(30))
	require.Equal(t, []int32{10, 20, 30}, got)
	require.Equal(t, fiber.Completed, f.State())

	// resuming a completed fiber does nothing
	require.False(t, f.Resume(40))
	require.Equal(t, []int32{10, 20, 30}, got)
}

func TestFiber_ReturnsError(t *testing.T) {
	failure := errors.New("boom")
	f := fiber.New(1, 0, func(f *fiber.Fiber[int]) error {
		if _, err := f.Suspend(); err != nil {
			return err
		}
		return failure
	})
	require.True(t, f.Start())
	require.False(t, f.Resume(1))
	require.Equal(t, failure, f.Err())
}

func TestFiber_StopUnwinds(t *testing.T) {
	cleaned := false
	f := fiber.New(1, 0, func(f *fiber.Fiber[int]) error {
		defer func() {
			cleaned = true
		}()
		_, err := f.Suspend()
		return err
	})
	require.True(t, f.Start())
	f.Stop()
	require.True(t, cleaned)
	require.Equal(t, fiber.Completed, f.State())
	require.True(t, errors.Is(f.Err(), fiber.ErrStopped))
}

func TestFiber_StopBeforeStart(t *testing.T) {
	ran := false
	f := fiber.New(1, 0, func(f *fiber.Fiber[int]) error {
		ran = true
		return nil
	})
	f.Stop()
	require.False(t, ran)
	require.False(t, f.Start())
	require.True(t, errors.Is(f.Err(), fiber.ErrStopped))
}

func TestFiber_Panic(t *testing.T) {
	f := fiber.New(1, 0, func(f *fiber.Fiber[int]) error {
		panic("bad")
	})
	require.False(t, f.Start())
	require.True(t, errors.Is(f.Err(), fiber.ErrPanicked))
}

func TestFiber_SuspendOutside(t *testing.T) {
	f := fiber.New(1, 0, func(f *fiber.Fiber[int]) error {
		return nil
	})
	_, err := f.Suspend()
	require.True(t, errors.Is(err, fiber.ErrNotRunning))
}

func TestFiber_Interleaving(t *testing.T) {
	var trace []string
	newFiber := func(name string) *fiber.Fiber[string] {
		return fiber.New(1, name, func(f *fiber.Fiber[string]) error {
			for i := 0; i < 2; i++ {
				trace = append(trace, f.Local)
				if _, err := f.Suspend(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	a, b := newFiber("a"), newFiber("b")
	require.True(t, a.Start())
	require.True(t, b.Start())
	require.True(t, b.Resume(0))
	require.True(t, a.Resume(0))
	require.False(t, a.Resume(0))
	require.False(t, b.Resume(0))
	require.Equal(t, []string{"a", "b", "b", "a"}, trace)
}
