package method_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weaveio/weave/fabric"
	"github.com/weaveio/weave/internal/cos"
	"github.com/weaveio/weave/method"
)

func TestImmediateCallRunsHandlerInline(t *testing.T) {
	m := method.New("echo", method.Immediate, func(ctx *method.Context) {
		ctx.Complete(append([]byte("echo:"), ctx.Request...))
	}, 0, 0, 0)

	ctx, err := m.Call([]byte("hi"), time.Second)
	require.NoError(t, err)
	require.Equal(t, "echo:hi", string(ctx.Response))
}

func TestImmediateCallPropagatesFail(t *testing.T) {
	wantErr := cos.NewErr(cos.InvalidArgument, "bad request")
	m := method.New("fails", method.Immediate, func(ctx *method.Context) {
		ctx.Fail(wantErr)
	}, 0, 0, 0)

	_, err := m.Call([]byte("x"), time.Second)
	require.Error(t, err)
	require.Equal(t, cos.InvalidArgument, cos.Kind(err))
}

func TestQueuedCallRequiresDraining(t *testing.T) {
	m := method.New("queued", method.Queued, func(ctx *method.Context) {
		ctx.Complete(ctx.Request)
	}, 4, 0, 0)

	ctx, err := m.CallAsync([]byte("payload"))
	require.NoError(t, err)

	require.Error(t, method.Wait(ctx, 30*time.Millisecond), "must not complete before the queue is drained")

	_, err = fabric.Process(m.Queue(), time.Second)
	require.NoError(t, err)

	require.NoError(t, method.Wait(ctx, time.Second))
	require.Equal(t, "payload", string(ctx.Response))
}

func TestCallTimesOutWithoutCompletion(t *testing.T) {
	m := method.New("hangs", method.Immediate, func(*method.Context) {
		// never completes or fails
	}, 0, 0, 0)

	_, err := m.Call([]byte("x"), 20*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, cos.Timeout, cos.Kind(err))
}

func TestCompleteAndFailAreMutuallyExclusiveAndSafe(t *testing.T) {
	m := method.New("double", method.Immediate, func(ctx *method.Context) {
		ctx.Complete([]byte("first"))
		ctx.Fail(cos.NewErr(cos.InvalidArgument, "should be ignored"))
	}, 0, 0, 0)

	ctx, err := m.Call([]byte("x"), time.Second)
	require.NoError(t, err)
	require.Equal(t, "first", string(ctx.Response))
}

func TestRequestSizeValidation(t *testing.T) {
	orig := fabric.Rom.Get()
	defer fabric.Rom.Set(orig)
	cfg := fabric.DefaultConfig()
	cfg.MaxRequestSize = 4
	fabric.Rom.Set(cfg)

	m := method.New("limited", method.Immediate, func(ctx *method.Context) {
		ctx.Complete(nil)
	}, 0, 0, 0)

	_, err := m.Call([]byte("toolong"), time.Second)
	require.Error(t, err)
	require.Equal(t, cos.InvalidArgument, cos.Kind(err))
}

func TestExactSizeMismatchRejectedBeforeHandlerRuns(t *testing.T) {
	var ran bool
	m := method.New("add1", method.Immediate, func(ctx *method.Context) {
		ran = true
		ctx.Complete([]byte{ctx.Request[0] + 1})
	}, 0, 4, 1)

	_, err := m.Call([]byte("x"), time.Second) // wrong request size (1, not 4)
	require.Error(t, err)
	require.Equal(t, cos.InvalidArgument, cos.Kind(err))
	require.False(t, ran, "handler must not run on a request-size mismatch")
}

func TestExactResponseSizeMismatchSurfacedAsError(t *testing.T) {
	m := method.New("add1", method.Immediate, func(ctx *method.Context) {
		ctx.Complete([]byte("too long"))
	}, 0, 4, 1)

	_, err := m.Call([]byte("abcd"), time.Second)
	require.Error(t, err)
	require.Equal(t, cos.InvalidArgument, cos.Kind(err))
}
