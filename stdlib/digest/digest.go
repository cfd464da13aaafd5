// Package digest is the native-function catalog for the Digest namespace:
// the one real cryptographic hash wired end to end rather than stubbed out,
// built on golang.org/x/crypto/sha3 for SHA3-256. Other embedded
// hash/signature primitives (SHAKE256, Falcon-512, ML-DSA, SLH-DSA,
// secp256k1 recovery) have no Language-level surface to bind them to and
// stay out of scope rather than being reimplemented unused.
package digest

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/vela-lang/vela/internal/native"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// Register installs every Digest.* native function into module, the
// binding table a `require "Digest"` resolves to (see internal/modloader).
func Register(m native.Registrar) {
	native.Function(m, "sha3", 1, func(ivm object.VM, args []value.Value) (value.Value, error) {
		s, err := native.CheckString("Digest.sha3", args, 0)
		if err != nil {
			return value.Nil, err
		}
		sum := sha3.Sum256([]byte(s))
		return value.Object(ivm.Intern(hex.EncodeToString(sum[:]))), nil
	})

	native.Function(m, "shake256", 2, func(ivm object.VM, args []value.Value) (value.Value, error) {
		s, err := native.CheckString("Digest.shake256", args, 0)
		if err != nil {
			return value.Nil, err
		}
		length, err := native.CheckInt("Digest.shake256", args, 1)
		if err != nil {
			return value.Nil, err
		}
		if length < 0 {
			return value.Nil, fmt.Errorf("method Digest.shake256 expects argument 2 to be non-negative")
		}
		out := make([]byte, length)
		sha3.ShakeSum256(out, []byte(s))
		return value.Object(ivm.Intern(hex.EncodeToString(out))), nil
	})
}
