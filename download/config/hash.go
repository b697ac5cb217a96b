package config

import (
	"crypto/sha256"
	"encoding/hex"

	"gopkg.in/yaml.v3"
)

// DigestLen is the number of hex characters used for the config digest (first 16 of SHA256).
const DigestLen = 16

// HashFromBytes returns the first 16 hex characters of the SHA256 of data.
func HashFromBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:DigestLen]
}

// Digest identifies the effective configuration, so operators can tell
// whether two instances run with the same settings. Cookie content is not
// part of Config and never influences the digest.
func (c *Config) Digest() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	return HashFromBytes(data)
}
