package app

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

// withSessionTimeouts adds statement_timeout and idle_in_transaction_session_timeout as
// lib/pq runtime parameters. Values already present in raw are kept.
func withSessionTimeouts(raw string, statementTimeout, idleTxTimeout time.Duration) string {
	params := [][2]string{
		{"statement_timeout", millis(statementTimeout)},
		{"idle_in_transaction_session_timeout", millis(idleTxTimeout)},
	}

	parsed, err := url.Parse(raw)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		query := parsed.Query()
		for _, p := range params {
			if p[1] == "" || query.Get(p[0]) != "" {
				continue
			}
			query.Set(p[0], p[1])
		}
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	out := strings.TrimSpace(raw)
	for _, p := range params {
		if p[1] == "" || strings.Contains(out, p[0]+"=") {
			continue
		}
		out += " " + p[0] + "=" + p[1]
	}
	return out
}

func millis(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}
