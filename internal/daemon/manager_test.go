// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard).Level(zerolog.InfoLevel)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func TestNewManager_ValidDeps(t *testing.T) {
	mgr, err := NewManager(DefaultServerConfig("127.0.0.1:0"), Deps{
		Logger:     testLogger(),
		APIHandler: okHandler(),
	})
	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestNewManager_MissingDeps(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
		want error
	}{
		{name: "disabled logger", deps: Deps{Logger: zerolog.Nop(), APIHandler: okHandler()}, want: ErrMissingLogger},
		{name: "no handler", deps: Deps{Logger: testLogger()}, want: ErrMissingAPIHandler},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(DefaultServerConfig("127.0.0.1:0"), tt.deps)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	mgr, err := NewManager(DefaultServerConfig("127.0.0.1:0"), Deps{Logger: testLogger(), APIHandler: okHandler()})
	require.NoError(t, err)
	require.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_StartServeShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	addrCh := make(chan net.Addr, 1)
	cfg := DefaultServerConfig("127.0.0.1:0")
	cfg.OnListening = func(addr net.Addr) { addrCh <- addr }

	mgr, err := NewManager(cfg, Deps{Logger: testLogger(), APIHandler: okHandler()})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"first", "second", "third"} {
		mgr.RegisterShutdownHook(name, func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case <-time.After(5 * time.Second):
		t.Fatal("listener was not bound")
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + addr.String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestManager_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	bound := make(chan struct{})
	cfg := DefaultServerConfig("127.0.0.1:0")
	cfg.OnListening = func(net.Addr) { close(bound) }
	mgr, err := NewManager(cfg, Deps{Logger: testLogger(), APIHandler: okHandler()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()
	<-bound

	require.Error(t, mgr.Start(ctx))

	cancel()
	require.NoError(t, <-done)
}

func TestManager_HookErrorsAreJoined(t *testing.T) {
	defer goleak.VerifyNone(t)

	bound := make(chan struct{})
	cfg := DefaultServerConfig("127.0.0.1:0")
	cfg.OnListening = func(net.Addr) { close(bound) }
	mgr, err := NewManager(cfg, Deps{Logger: testLogger(), APIHandler: okHandler()})
	require.NoError(t, err)

	boom := errors.New("boom")
	ran := false
	mgr.RegisterShutdownHook("runs", func(context.Context) error {
		ran = true
		return nil
	})
	mgr.RegisterShutdownHook("fails", func(context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()
	<-bound
	cancel()

	err = <-done
	require.ErrorIs(t, err, boom)
	assert.True(t, ran, "a failing hook must not stop later hooks")
}

func TestManager_RejectsNonLoopbackListen(t *testing.T) {
	mgr, err := NewManager(DefaultServerConfig("0.0.0.0:0"), Deps{Logger: testLogger(), APIHandler: okHandler()})
	require.NoError(t, err)

	err = mgr.Start(context.Background())
	require.ErrorIs(t, err, ErrNonLoopbackListen)
}

func TestManager_ListenConflict(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	mgr, err := NewManager(DefaultServerConfig(ln.Addr().String()), Deps{Logger: testLogger(), APIHandler: okHandler()})
	require.NoError(t, err)
	require.Error(t, mgr.Start(context.Background()))
}
