package config

import (
	"strings"
	"unicode"
)

// legacyKeys maps the variables read by earlier deployments onto config
// paths. Values are used verbatim unless legacyValue rewrites them.
var legacyKeys = map[string]string{
	"PORT":                           "http.addr",
	"NODE_ENV":                       "env.production",
	"MONGODB_URI":                    "mongo.uri",
	"MONGODB_URL":                    "mongo.uri",
	"MAX_LOGIN_ATTEMPTS":             "auth.maxLoginAttempts",
	"LOCKOUT_DURATION_MINUTES":       "auth.lockoutDuration",
	"PASSWORD_MIN_STRENGTH_SCORE":    "password.minStrengthScore",
	"PASSWORD_MAX_LENGTH":            "password.maxLength",
	"PASSWORD_MIN_LENGTH":            "password.minLength",
	"PASSWORD_REQUIRE_UPPERCASE":     "password.requireUppercase",
	"PASSWORD_REQUIRE_LOWERCASE":     "password.requireLowercase",
	"PASSWORD_REQUIRE_NUMBERS":       "password.requireNumbers",
	"PASSWORD_REQUIRE_SPECIAL_CHARS": "password.requireSpecialChars",
}

// legacyEnv is a koanf env transform. Unknown variables map to the empty
// key, which koanf skips.
func legacyEnv(key, v string) (string, any) {
	path, ok := legacyKeys[key]
	if !ok {
		return "", nil
	}
	switch key {
	case "PORT":
		return path, ":" + strings.TrimPrefix(v, ":")
	case "NODE_ENV":
		return path, v == "production"
	case "LOCKOUT_DURATION_MINUTES":
		return path, v + "m"
	case "PASSWORD_REQUIRE_SPECIAL_CHARS":
		return path, v == "true"
	case "PASSWORD_REQUIRE_UPPERCASE", "PASSWORD_REQUIRE_LOWERCASE", "PASSWORD_REQUIRE_NUMBERS":
		return path, v != "false"
	}
	return path, v
}

// canonicalizeEnvKey turns AUTH_TOKEN_SECRET into auth.tokenSecret by
// matching underscore-separated segments against the keys already loaded.
// Several segments may join into one key; the longest match wins.
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := make([]string, 0, 4)
	for _, s := range strings.Split(strings.ToLower(rawKey), "_") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	canonical := make([]string, 0, len(segments))
	current := existing
	for i := 0; i < len(segments); {
		matched, next, n := longestMatch(current, segments[i:])
		if n == 0 {
			canonical = append(canonical, segments[i])
			current = nil
			i++
			continue
		}
		canonical = append(canonical, matched)
		current = next
		i += n
	}
	return strings.Join(canonical, ".")
}

func longestMatch(current map[string]any, segments []string) (string, map[string]any, int) {
	if len(current) == 0 {
		return "", nil, 0
	}
	for n := len(segments); n > 0; n-- {
		needle := strings.Join(segments[:n], "")
		for key, value := range current {
			if normalizeToken(key) != needle {
				continue
			}
			child, _ := value.(map[string]any)
			return key, child, n
		}
	}
	return "", nil, 0
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
