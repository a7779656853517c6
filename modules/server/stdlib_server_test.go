package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	trace *[]string
}

func (s stubService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		*s.trace = append(*s.trace, "handler")
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s stubService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{tag(s.trace, "service")}
}

func tag(trace *[]string, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNew_RejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 1 << 16} {
		_, err := New("127.0.0.1", port)
		assert.Error(t, err, "port %d", port)
	}
}

func TestNew_MiddlewareOrder(t *testing.T) {
	var trace []string
	s, err := New("127.0.0.1", 8080,
		WithGlobalMiddlewares(tag(&trace, "first"), nil, tag(&trace, "second")),
		WithServices(stubService{trace: &trace}),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"first", "second", "service", "handler"}, trace)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	s, err := New("127.0.0.1", port, WithShutdownTimeout(time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			return false
		}
		_ = c.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
