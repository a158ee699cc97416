// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package signature provides the signing capability clients use for
// signed message fields.
//
// Every signature is bound to a label naming what is being signed
// (for example "bdf.post"). The label and the signed bytes are hashed
// together with a BLAKE3 keyed hash and the 32-byte digest is signed
// with Ed25519, so a signature produced for one label never verifies
// under another:
//
//	digest    = BLAKE3(key="bdf.signature", len(label) || label || data)
//	signature = Ed25519(privateKey, digest)
package signature

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// ErrBadSignature is returned when a signature does not verify.
var ErrBadSignature = errors.New("signature: verification failed")

const (
	// PublicKeySize is the length of a public key in bytes.
	PublicKeySize = ed25519.PublicKeySize

	// MaxSize is the length of a signature in bytes. Message schemas
	// use it as the upper bound of their signature fields.
	MaxSize = ed25519.SignatureSize
)

// Signer signs data under a label.
type Signer interface {
	Sign(label string, data []byte) ([]byte, error)
	PublicKey() []byte
}

// Verifier checks a signature produced by a Signer.
type Verifier interface {
	Verify(label string, signature, data, publicKey []byte) error
}

var signatureDomainKey = [32]byte{
	'b', 'd', 'f', '.', 's', 'i', 'g', 'n', 'a', 't', 'u', 'r', 'e', 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// digest binds label and data into the 32 bytes that are signed.
func digest(label string, data []byte) []byte {
	hasher, err := blake3.NewKeyed(signatureDomainKey[:])
	if err != nil {
		panic("signature: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(label)))
	hasher.Write(length[:])
	hasher.WriteString(label)
	hasher.Write(data)
	return hasher.Sum(nil)
}

// KeyPair is an Ed25519 key pair. It implements Signer.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeyPair creates a new key pair using random bytes from rand.
func GenerateKeyPair(rand io.Reader) (KeyPair, error) {
	public, private, err := ed25519.GenerateKey(rand)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generating Ed25519 keypair: %w", err)
	}
	return KeyPair{Public: public, Private: private}, nil
}

// Sign signs data under label.
func (k KeyPair) Sign(label string, data []byte) ([]byte, error) {
	if len(k.Private) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key has %d bytes, want %d", len(k.Private), ed25519.PrivateKeySize)
	}
	return ed25519.Sign(k.Private, digest(label, data)), nil
}

// PublicKey returns the public half of the pair.
func (k KeyPair) PublicKey() []byte { return k.Public }

// Ed25519Verifier verifies signatures made by a KeyPair.
type Ed25519Verifier struct{}

// Verify returns nil if signature is publicKey's signature of data
// under label, and an error wrapping ErrBadSignature otherwise.
func (Ed25519Verifier) Verify(label string, signature, data, publicKey []byte) error {
	if len(publicKey) != PublicKeySize {
		return fmt.Errorf("%w: public key has %d bytes, want %d", ErrBadSignature, len(publicKey), PublicKeySize)
	}
	if len(signature) != MaxSize {
		return fmt.Errorf("%w: signature has %d bytes, want %d", ErrBadSignature, len(signature), MaxSize)
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), digest(label, data), signature) {
		return ErrBadSignature
	}
	return nil
}
