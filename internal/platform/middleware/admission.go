// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package middleware

import (
	"fmt"
	"net/http"
	"net/netip"
	"regexp"
	"strings"
)

// Network admission interceptors.
//
// # Contract
//
// Three independently-configured checks run in a FIXED order on every inbound
// request, before tracing, rate limiting, authentication, or any business
// logic:
//
//  1. [UserAgentBan] — regex denylist against the User-Agent header.
//  2. [IPBan]        — client IP against a banned prefix set.
//  3. [IPAllow]      — client IP must be covered by an allowed prefix set.
//
// Each check short-circuits with 403 and a {"detail": ...} body. The lists
// are compiled once at startup from immutable configuration; changing them
// requires a restart.

// # List Compilation

// CompileUserAgentPatterns compiles the configured denylist expressions.
//
// A malformed pattern is a configuration error and fails startup.
func CompileUserAgentPatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("middleware: invalid user-agent ban pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// ParseIPMatchers parses banned/allowed IP entries into prefixes.
//
// Entries are either CIDR prefixes ("10.0.0.0/8") or bare addresses, which
// become single-host prefixes (/32 for IPv4, /128 for IPv6).
func ParseIPMatchers(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("middleware: invalid IP prefix %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("middleware: invalid IP address %q: %w", entry, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// # Interceptors

// UserAgentBan rejects requests whose User-Agent matches any banned pattern.
//
// A missing User-Agent header is treated as non-matching and passes: matching
// a regex against an absent value is undefined, and a header the client never
// sent must not be able to trip the ban.
func UserAgentBan(banned []*regexp.Regexp) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			userAgent := request.UserAgent()
			if userAgent != "" {
				for _, pattern := range banned {
					if pattern.MatchString(userAgent) {
						writeDetail(writer, http.StatusForbidden, "FORBIDDEN", "You are banned")
						return
					}
				}
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// IPBan rejects requests whose client IP falls inside a banned prefix.
//
// An unparseable client IP cannot match any prefix and passes this check;
// the allow-list below still fails it closed.
func IPBan(banned []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if addr, ok := clientAddr(request); ok && prefixesContain(banned, addr) {
				writeDetail(writer, http.StatusForbidden, "FORBIDDEN", "You are banned")
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// IPAllow rejects requests whose client IP is not covered by the allow-list.
//
// This check fails closed: a client IP that cannot be parsed cannot prove
// membership and is rejected. An empty allow-list disables the check
// (the default configuration allows 0.0.0.0/0 and ::/0 explicitly).
func IPAllow(allowed []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if len(allowed) > 0 {
				addr, ok := clientAddr(request)
				if !ok || !prefixesContain(allowed, addr) {
					writeDetail(writer, http.StatusForbidden, "FORBIDDEN", "Not allowed IP address")
					return
				}
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// clientAddr resolves and parses the client IP for admission decisions.
func clientAddr(request *http.Request) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(RealIP(request))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// prefixesContain reports whether any prefix covers the address.
func prefixesContain(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, prefix := range prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
