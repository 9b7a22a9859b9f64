package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key builds a cache key for a mod reference. The parts are JSON-encoded
// and hashed so that slugs, numeric ids and empty version components all
// produce safe, collision-free keys.
// The key format is: platform:hash(projectID, versionID).
func Key(platform, projectID, versionID string) string {
	data, _ := json.Marshal([]string{projectID, versionID})
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", platform, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
