package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecover_WritesJSON500AndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := Recover(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mall/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "panic", entry.Message)
	assert.Equal(t, "/mall/cart", entry.ContextMap()["path"])
}

func TestSession_PrefersHeaderThenCookie(t *testing.T) {
	var got string
	h := Session(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, " from-header ")
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "from-header", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "from-cookie", got)
	assert.Equal(t, "from-cookie", rec.Header().Get(SessionHeader))
	assert.Empty(t, rec.Result().Cookies())
}

func TestSession_RejectsUnusableIDs(t *testing.T) {
	var got string
	h := Session(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = SessionIDFromContext(r.Context())
	}))

	for _, bad := range []string{"a/b", "has space", strings.Repeat("x", maxSessionIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionHeader, bad)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.NotEqual(t, bad, got)
		assert.Len(t, got, 36, "a fresh uuid is issued for %q", bad)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, got, cookies[0].Value)
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := AccessLog(zap.New(core))(Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("hi"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/mall/home", nil)
	req.Header.Set(SessionHeader, "s1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.All()
	require.Len(t, entries, 2)

	ok := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/mall/home", ok["path"])
	assert.EqualValues(t, http.StatusOK, ok["status"])
	assert.EqualValues(t, 2, ok["bytes"])
	assert.Equal(t, "s1", ok["sessionId"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
}
