package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	return fmt.Sprintf("%s:%s", prefix, HashObject(parts...))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashObject hashes the JSON encoding of parts. Map keys are encoded in
// sorted order, so equal values always hash equally.
func HashObject(parts ...any) string {
	data, _ := json.Marshal(parts)
	return Hash(data)
}

// PluginKey is the cache key of a plugin's discovered goals. The Maven
// command is part of the key because mvnd and mvn may report differently.
func PluginKey(coordinate, command string) string {
	return hashKey("plugin", coordinate, command)
}

// ProjectKey is the key of one project's synthesized descriptor within a
// targets cache file. model is the encoded input the descriptor was built
// from; together with the test file list it invalidates the entry on any
// edit that could change the targets.
func ProjectKey(model []byte, testFiles []string) string {
	return HashObject(Hash(model), testFiles)
}
