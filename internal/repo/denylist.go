package repo

import (
	"path/filepath"
	"strings"
)

var deniedSuffixes = []string{".pem", ".key", ".p12", ".pfx", ".keystore", ".jks"}

var deniedNames = []string{
	".npmrc",
	".netrc",
	".git-credentials",
	".pypirc",
	"application_default_credentials.json",
}

var deniedFragments = []string{
	".aws/credentials",
	".docker/config.json",
	".ssh/",
	".config/gcloud/",
}

// IsDenylisted reports whether path names a credential or key file that must
// never leave the machine, regardless of ignore-file configuration.
func IsDenylisted(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	base := strings.ToLower(filepath.Base(path))

	if strings.HasPrefix(base, ".env") && base != ".env.example" {
		return true
	}
	for _, suffix := range deniedSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	if strings.HasPrefix(base, "id_rsa") || strings.HasPrefix(base, "id_ed25519") || strings.HasPrefix(base, "id_ecdsa") {
		return true
	}
	for _, name := range deniedNames {
		if base == name {
			return true
		}
	}
	for _, fragment := range deniedFragments {
		if strings.Contains(lower, "/"+fragment) {
			return true
		}
	}
	return false
}
