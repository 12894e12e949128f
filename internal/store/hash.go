package store

import (
	"crypto/sha256"
	"fmt"
)

// ContentHash returns the hex SHA-256 of a file's bytes. The engine skips
// files whose stored hash matches.
func ContentHash(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}

// ComputeSignatureHash computes a deterministic hash from a symbol's semantic
// identity: name, kind, production and scope depth. Location changes do NOT
// affect the hash, so a definition that only moved keeps its signature.
func ComputeSignatureHash(name, kind, production string, scoped bool) string {
	h := sha256.New()
	fmt.Fprintf(h, "name:%s\n", name)
	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "production:%s\n", production)
	fmt.Fprintf(h, "scoped:%v\n", scoped)
	return fmt.Sprintf("%x", h.Sum(nil))
}
