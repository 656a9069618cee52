// Package secrets is the secret-access collaborator used to obtain API keys
// for upstream services. Storage is out of scope: values come from the
// process environment or from an in-memory map.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source resolves a secret by name.
type Source interface {
	Secret(name string) (string, error)
}

// NotFoundError is returned when a secret is not set.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("secret %q not found", e.Name) }

// EnvSource reads secrets from environment variables. Names are tried as-is
// and then upper-cased, so "currencyApiKey" also resolves CURRENCYAPIKEY.
type EnvSource struct{}

func (EnvSource) Secret(name string) (string, error) {
	for _, key := range []string{name, strings.ToUpper(name)} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, nil
		}
	}
	return "", &NotFoundError{Name: name}
}

// MapSource serves secrets from a fixed map.
type MapSource map[string]string

func (m MapSource) Secret(name string) (string, error) {
	if v, ok := m[name]; ok && v != "" {
		return v, nil
	}
	return "", &NotFoundError{Name: name}
}

// Optional returns the secret or "" when it is not set.
func Optional(src Source, name string) string {
	if src == nil || name == "" {
		return ""
	}
	v, err := src.Secret(name)
	if err != nil {
		return ""
	}
	return v
}
