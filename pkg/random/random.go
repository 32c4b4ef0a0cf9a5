package random

import (
	"crypto/rand"
)

const (
	nameBytes   = "abcdefghijklmnopqrstuvwxyz0123456789" // 36 possibilities, valid in DNS-1123 names
	nameIdxBits = 6                                      // 6 bits to represent 64 possibilities / indexes
	nameIdxMask = 1<<nameIdxBits - 1                     // All 1-bits, as many as nameIdxBits
)

// NameSuffix returns a random lower case alphanumeric string of the requested
// length, usable as a Kubernetes resource name suffix.
func NameSuffix(length int) string {
	result := make([]byte, length)
	bufferSize := length*2 + 1
	for i, j, randomBytes := 0, 0, []byte{}; i < length; j++ {
		if j%bufferSize == 0 {
			randomBytes = secureRandomBytes(bufferSize)
		}
		if idx := int(randomBytes[j%bufferSize] & nameIdxMask); idx < len(nameBytes) {
			result[i] = nameBytes[idx]
			i++
		}
	}
	return string(result)
}

// secureRandomBytes returns the requested number of bytes using crypto/rand
func secureRandomBytes(length int) []byte {
	randomBytes := make([]byte, length)
	_, _ = rand.Read(randomBytes)
	return randomBytes
}
