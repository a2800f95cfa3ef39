// Copyright 2025 The kanari-core Authors
// This file is part of the kanari-core library.
//
// The kanari-core library is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The kanari-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser
// General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the kanari-core library. If not, see
// <http://www.gnu.org/licenses/>.

package crypto

import (
	"crypto/ed25519"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/jamesatomc/kanari-core/common"
)

// Curve identifies which signature scheme produced a SignedTransaction's
// signature. The engine supports a small, closed set: the Move-side wallet
// curves that actually sign user transactions. HSM-backed and post-quantum
// curves are key-custody concerns handled upstream of this module.
type Curve int

const (
	// CurveUnknown marks a signature whose curve could not be inferred.
	CurveUnknown Curve = iota
	CurveEd25519
	CurveSecp256k1
)

var (
	ErrNoSignature       = errors.New("crypto: transaction has no signature")
	ErrBadSignatureShape = errors.New("crypto: signature has no recognized curve length")
	ErrSignatureInvalid  = errors.New("crypto: signature does not verify")
)

// InferCurve returns the curve implied by a signature's byte length: a
// 64-byte signature is Ed25519 (raw R||S), a 65-byte signature is a
// secp256k1 recoverable ECDSA signature (1-byte recovery id + R||S), which
// is how the two curves used for transaction signing in this engine are
// told apart without a separate tag field.
func InferCurve(sig []byte) Curve {
	switch len(sig) {
	case ed25519.SignatureSize:
		return CurveEd25519
	case 65:
		return CurveSecp256k1
	default:
		return CurveUnknown
	}
}

// VerifySignature checks that sig, over digest, was produced by the holder
// of sender. For Ed25519 the address IS the 32-byte public key. For
// secp256k1 the public key is recovered from the signature and digest, then
// hashed and compared against sender, mirroring how ethereum-family chains
// recover a sender from a recoverable signature rather than shipping a
// public key alongside every transaction.
func VerifySignature(sender common.Address, digest common.Hash, sig []byte) (bool, error) {
	if len(sig) == 0 {
		return false, ErrNoSignature
	}

	switch InferCurve(sig) {
	case CurveEd25519:
		return ed25519.Verify(ed25519.PublicKey(sender.Bytes()), digest.Bytes(), sig), nil

	case CurveSecp256k1:
		pub, _, err := ecdsa.RecoverCompact(sig, digest.Bytes())
		if err != nil {
			return false, err
		}
		recovered := AddressFromSecp256k1Pub(pub)
		return recovered == sender, nil

	default:
		return false, ErrBadSignatureShape
	}
}

// AddressFromSecp256k1Pub derives the 32-byte address used by this engine
// from an uncompressed secp256k1 public key: Keccak-256 of the 64-byte
// X||Y coordinates, right-aligned into an Address (the engine's addresses
// are wider than the 20-byte ethereum convention, so no truncation occurs).
func AddressFromSecp256k1Pub(pub *btcec.PublicKey) common.Address {
	uncompressed := pub.SerializeUncompressed()[1:] // drop the 0x04 prefix
	digest := Keccak256(uncompressed)
	return common.BytesToAddress(digest.Bytes())
}

// SignEd25519 signs digest with priv and returns a 64-byte signature.
func SignEd25519(priv ed25519.PrivateKey, digest common.Hash) []byte {
	return ed25519.Sign(priv, digest.Bytes())
}

// SignSecp256k1 signs digest with priv and returns a 65-byte recoverable
// signature suitable for VerifySignature/AddressFromSecp256k1Pub.
func SignSecp256k1(priv *btcec.PrivateKey, digest common.Hash) []byte {
	return ecdsa.SignCompact(priv, digest.Bytes(), false)
}
