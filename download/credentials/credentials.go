package credentials

import (
	"fmt"
	"os"

	"github.com/sv4u/audiodl/download/workspace"
)

// CookieFileName is the name of the cookie jar written into each workspace.
const CookieFileName = "cookies.txt"

// ConfigurationError is returned when a required credential is not configured.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("Configuration error: %s", e.Message)
}

// Provisioner materializes Netscape-format cookie content into a file the
// extractor can read.
type Provisioner struct {
	source   string
	content  string
	required bool
}

// NewProvisioner returns a Provisioner for cookie content taken from the
// environment variable named source. When required is true an empty value
// is a configuration error.
func NewProvisioner(source, content string, required bool) *Provisioner {
	return &Provisioner{
		source:   source,
		content:  content,
		required: required,
	}
}

// FromEnv reads the cookie content from the named environment variable.
func FromEnv(envVar string, required bool) *Provisioner {
	return NewProvisioner(envVar, os.Getenv(envVar), required)
}

// Configured reports whether cookie content is available.
func (p *Provisioner) Configured() bool {
	return p.content != ""
}

// Provision writes the cookie content into ws and returns the file path.
// It returns "" when no content is configured and cookies are optional.
// The file is removed together with the workspace.
func (p *Provisioner) Provision(ws *workspace.Workspace) (string, error) {
	if p.content == "" {
		if p.required {
			return "", &ConfigurationError{
				Message: fmt.Sprintf("Missing %s environment variable", p.source),
			}
		}
		return "", nil
	}

	path := ws.Join(CookieFileName)
	if err := os.WriteFile(path, []byte(p.content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write cookie file: %w", err)
	}
	return path, nil
}
