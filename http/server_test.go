package httpx

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type running struct {
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, fs billy.Basic, file string, opts Options) *running {
	t.Helper()
	ln, err := Open(context.Background(), "127.0.0.1", 0, ListenOptions{})
	require.NoError(t, err, "open listener")

	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{Listener: ln, FS: fs, File: file, Options: opts}
	r := &running{addr: ln.Addr().String(), cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop")
		}
	})
	return r
}

// fetch connects, sends request (if any) and reads until the server closes.
func fetch(t *testing.T, addr, request string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err, "dial")
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	if request != "" {
		_, err = io.WriteString(conn, request)
		require.NoError(t, err, "send request")
	}
	resp, err := io.ReadAll(conn)
	require.NoError(t, err, "read response")
	return string(resp)
}

const request = "GET / HTTP/1.1\r\n\r\n"

func TestServeIndexFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.htm"), []byte(page), 0o644))

	srv := startServer(t, osfs.New(dir), "index.htm", Options{Timeout: time.Second})
	got := fetch(t, srv.addr, request)

	assert.Equal(t,
		"HTTP/1.1 200 OK\n"+"Content-length: 16\n"+"Content-Type: text/html\n\n"+"<html>ok</html>\n",
		got)
}

func TestServeMissingFileClosesSilently(t *testing.T) {
	before := testutil.ToFloat64(exchanges.WithLabelValues(resultFileOpen))

	srv := startServer(t, memfs.New(), "index.htm", Options{Timeout: time.Second})
	got := fetch(t, srv.addr, "anything at all")
	assert.Empty(t, got, "no bytes for a missing file")

	// the server keeps accepting after a per-connection error
	got = fetch(t, srv.addr, request)
	assert.Empty(t, got)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(exchanges.WithLabelValues(resultFileOpen)) == before+2
	}, time.Second, 10*time.Millisecond, "file_open_error counter")
}

func TestServeUnreadableFileClosesSilently(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "index.htm"), 0o755))

	srv := startServer(t, osfs.New(dir), "index.htm", Options{Timeout: time.Second})
	assert.Empty(t, fetch(t, srv.addr, request), "no bytes when the file can't be read")
	assert.Empty(t, fetch(t, srv.addr, request), "server keeps accepting after a read failure")
}

func TestServeSequentialClients(t *testing.T) {
	fs := memFile(t, "index.htm", []byte(page))
	srv := startServer(t, fs, "index.htm", Options{Timeout: time.Second})

	want := string(BuildHeader(len(page), false)) + page
	for i := 0; i < 2; i++ {
		assert.Equal(t, want, fetch(t, srv.addr, request), "client %d", i)
	}
}

func TestServePicksUpFileEdits(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "index.htm")
	require.NoError(t, os.WriteFile(p, []byte("one"), 0o644))
	srv := startServer(t, osfs.New(dir), "index.htm", Options{Timeout: time.Second})

	assert.Equal(t, "HTTP/1.1 200 OK\nContent-length: 3\nContent-Type: text/html\n\none", fetch(t, srv.addr, request))

	require.NoError(t, os.WriteFile(p, []byte("three"), 0o644))
	assert.Equal(t, "HTTP/1.1 200 OK\nContent-length: 5\nContent-Type: text/html\n\nthree", fetch(t, srv.addr, request))
}

func TestSilentClientDoesNotHangServer(t *testing.T) {
	const timeout = 200 * time.Millisecond
	fs := memFile(t, "index.htm", []byte(page))
	srv := startServer(t, fs, "index.htm", Options{Timeout: timeout})
	want := string(BuildHeader(len(page), false)) + page

	silent, err := net.DialTimeout("tcp", srv.addr, time.Second)
	require.NoError(t, err)
	defer silent.Close()

	start := time.Now()
	got := fetch(t, srv.addr, request)
	assert.Equal(t, want, got, "second client served once the first timed out")
	assert.GreaterOrEqual(t, time.Since(start), timeout, "second client served before the first finished")

	// the silent client still got its response after the read deadline
	require.NoError(t, silent.SetDeadline(time.Now().Add(time.Second)))
	resp, err := io.ReadAll(silent)
	require.NoError(t, err)
	assert.Equal(t, want, string(resp))
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := Open(context.Background(), "127.0.0.1", 0, ListenOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{Listener: ln, FS: memfs.New(), File: "index.htm"}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	_, err = net.DialTimeout("tcp", ln.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err, "listener still accepting after shutdown")
}

func TestShutdownAbortsStalledExchange(t *testing.T) {
	ln, err := Open(context.Background(), "127.0.0.1", 0, ListenOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := &Server{Listener: ln, FS: memFile(t, "index.htm", []byte(page)), File: "index.htm"}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	// no timeout configured: only cancellation can free the server
	stalled, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	require.NoError(t, err)
	defer stalled.Close()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve stuck on a stalled client after cancel")
	}
}

func TestShutdownMethod(t *testing.T) {
	ln, err := Open(context.Background(), "127.0.0.1", 0, ListenOptions{})
	require.NoError(t, err)
	srv := &Server{Listener: ln, FS: memfs.New(), File: "index.htm"}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()

	require.NoError(t, srv.Shutdown())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
