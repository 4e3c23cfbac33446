// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vberko/kontakta/internal/platform/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
}

func TestCompileUserAgentPatterns(t *testing.T) {
	t.Run("compiles valid patterns and skips blanks", func(t *testing.T) {
		compiled, err := middleware.CompileUserAgentPatterns([]string{"Googlebot", " ", "Python-urllib"})
		require.NoError(t, err)
		assert.Len(t, compiled, 2)
	})

	t.Run("rejects malformed regex", func(t *testing.T) {
		_, err := middleware.CompileUserAgentPatterns([]string{"Googlebot", "[unclosed"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "[unclosed")
	})
}

func TestParseIPMatchers(t *testing.T) {
	t.Run("bare addresses become single-host prefixes", func(t *testing.T) {
		prefixes, err := middleware.ParseIPMatchers([]string{"203.0.113.7", "2001:db8::1"})
		require.NoError(t, err)
		require.Len(t, prefixes, 2)
		assert.Equal(t, 32, prefixes[0].Bits())
		assert.Equal(t, 128, prefixes[1].Bits())
	})

	t.Run("CIDR entries are masked", func(t *testing.T) {
		prefixes, err := middleware.ParseIPMatchers([]string{"10.0.0.5/8"})
		require.NoError(t, err)
		require.Len(t, prefixes, 1)
		assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := middleware.ParseIPMatchers([]string{"not-an-ip"})
		require.Error(t, err)
	})
}

func TestUserAgentBan(t *testing.T) {
	banned, err := middleware.CompileUserAgentPatterns([]string{"Googlebot", "Python-urllib"})
	require.NoError(t, err)

	handler := middleware.UserAgentBan(banned)(okHandler())

	testCases := []struct {
		name       string
		userAgent  string
		wantStatus int
	}{
		{"banned agent is rejected", "Googlebot/2.1 (+http://www.google.com/bot.html)", http.StatusForbidden},
		{"substring match trips the ban", "Mozilla Python-urllib/3.11", http.StatusForbidden},
		{"ordinary browser passes", "Mozilla/5.0 (X11; Linux x86_64)", http.StatusOK},
		{"missing header passes", "", http.StatusOK},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
			if testCase.userAgent != "" {
				request.Header.Set("User-Agent", testCase.userAgent)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.wantStatus, recorder.Code)
			if testCase.wantStatus == http.StatusForbidden {
				assert.Contains(t, recorder.Body.String(), "You are banned")
			}
		})
	}
}

func TestIPBan(t *testing.T) {
	banned, err := middleware.ParseIPMatchers([]string{"203.0.113.7", "10.0.0.0/8"})
	require.NoError(t, err)

	handler := middleware.IPBan(banned)(okHandler())

	testCases := []struct {
		name       string
		remoteAddr string
		realIP     string
		wantStatus int
	}{
		{"exact banned address", "203.0.113.7:51000", "", http.StatusForbidden},
		{"address inside banned CIDR", "10.42.1.9:51000", "", http.StatusForbidden},
		{"clean address passes", "198.51.100.20:51000", "", http.StatusOK},
		{"banned address via X-Real-IP", "127.0.0.1:51000", "10.0.0.1", http.StatusForbidden},
		{"unparseable client IP passes the ban check", "garbage", "", http.StatusOK},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
			request.RemoteAddr = testCase.remoteAddr
			if testCase.realIP != "" {
				request.Header.Set("X-Real-IP", testCase.realIP)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.wantStatus, recorder.Code)
			if testCase.wantStatus == http.StatusForbidden {
				assert.Contains(t, recorder.Body.String(), "You are banned")
			}
		})
	}
}

func TestIPAllow(t *testing.T) {
	t.Run("restricted allow-list", func(t *testing.T) {
		allowed, err := middleware.ParseIPMatchers([]string{"192.168.0.0/16", "2001:db8::/32"})
		require.NoError(t, err)

		handler := middleware.IPAllow(allowed)(okHandler())

		testCases := []struct {
			name       string
			remoteAddr string
			wantStatus int
		}{
			{"address inside allowed CIDR", "192.168.4.20:51000", http.StatusOK},
			{"allowed IPv6 range", "[2001:db8::42]:51000", http.StatusOK},
			{"outside address is rejected", "203.0.113.7:51000", http.StatusForbidden},
			{"unparseable client IP is rejected", "garbage", http.StatusForbidden},
		}

		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				request := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
				request.RemoteAddr = testCase.remoteAddr

				recorder := httptest.NewRecorder()
				handler.ServeHTTP(recorder, request)

				assert.Equal(t, testCase.wantStatus, recorder.Code)
				if testCase.wantStatus == http.StatusForbidden {
					assert.Contains(t, recorder.Body.String(), "Not allowed IP address")
				}
			})
		}
	})

	t.Run("empty allow-list admits everyone", func(t *testing.T) {
		handler := middleware.IPAllow(nil)(okHandler())

		request := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
		request.RemoteAddr = "garbage"

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("default open ranges admit any parseable address", func(t *testing.T) {
		allowed, err := middleware.ParseIPMatchers([]string{"0.0.0.0/0", "::/0"})
		require.NoError(t, err)

		handler := middleware.IPAllow(allowed)(okHandler())

		for _, remoteAddr := range []string{"203.0.113.7:51000", "[2001:db8::1]:51000"} {
			request := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
			request.RemoteAddr = remoteAddr

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusOK, recorder.Code)
		}
	})
}
