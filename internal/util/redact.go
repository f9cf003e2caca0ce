package util

import "regexp"

var (
	keyValuePattern = regexp.MustCompile(`(?i)(api_key|apikey|x-goog-api-key|secret|token|password|access_key|private_key)\s*[:=]\s*([^\s"'&]+)`)
	queryKeyPattern = regexp.MustCompile(`([?&]key=)[^&\s"']+`)
	privateKeyBlock = regexp.MustCompile(`(?is)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`)
	jwtPattern      = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.?[a-zA-Z0-9_-]*`)
	googleKey       = regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`)
	bearerPattern   = regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9._~+/=-]{8,}`)
)

// RedactSecrets removes likely secrets from text before it reaches logs or
// agent-facing tool output.
func RedactSecrets(input string) string {
	out := keyValuePattern.ReplaceAllString(input, `$1=[REDACTED]`)
	out = queryKeyPattern.ReplaceAllString(out, `${1}[REDACTED]`)
	out = privateKeyBlock.ReplaceAllString(out, "[REDACTED PRIVATE KEY]")
	out = jwtPattern.ReplaceAllString(out, "[REDACTED JWT]")
	out = googleKey.ReplaceAllString(out, "[REDACTED KEY]")
	out = bearerPattern.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
