// Package vrf implements the Verifiable Random Function of spec.md §4.4: a
// keyed pseudo-random function over a prime-order elliptic-curve group with
// a non-interactive Schnorr-style discrete-log-equality proof.
package vrf

import (
	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/internal/curve"
	"github.com/iotaledger/ozks/internal/ozkshash"
)

// SecretKey is a VRF signing key: a single scalar in [0, q).
type SecretKey struct {
	sk curve.Scalar
}

// PublicKey is the corresponding verification key: pk = sk*g.
type PublicKey struct {
	pk curve.Point
}

// Proof is the non-interactive proof (gamma, c, s) accompanying a VRF value.
type Proof struct {
	Gamma curve.Point
	C     curve.Scalar
	S     curve.Scalar
}

// GenerateSecretKey draws a fresh random secret key, or derives one
// deterministically from seed when seed is non-empty (spec.md's vrf_seed
// configuration option).
func GenerateSecretKey(seed []byte) SecretKey {
	if len(seed) == 0 {
		return SecretKey{sk: curve.RandomScalar()}
	}
	return SecretKey{sk: curve.DeterministicScalar(seed)}
}

// PublicKey derives the public key pk = sk*g.
func (k SecretKey) PublicKey() PublicKey {
	return PublicKey{pk: curve.Suite.Point().Mul(k.sk, nil)}
}

// GetHash computes the VRF value for data: extract_hash(sk·H_curve(data)).
func (k SecretKey) GetHash(data []byte) (ozkshash.Hash, error) {
	hPoint := curve.HashToCurve(data)
	gamma := curve.Suite.Point().Mul(k.sk, hPoint)
	enc, err := curve.MarshalPoint(gamma)
	if err != nil {
		return ozkshash.Hash{}, xerrors.Errorf("ozks: vrf: marshal gamma: %w", err)
	}
	return ozkshash.VRFOutputHash(enc), nil
}

// GetProof computes the VRF value together with its non-interactive proof.
func (k SecretKey) GetProof(data []byte) (ozkshash.Hash, Proof, error) {
	g := curve.Generator()
	hPoint := curve.HashToCurve(data)
	gamma := curve.Suite.Point().Mul(k.sk, hPoint)

	pk := curve.Suite.Point().Mul(k.sk, nil)

	nonceSeed := append(append([]byte{}, mustBytes(k.sk)...), data...)
	kScalar := curve.DeterministicScalar(nonceSeed)

	u := curve.Suite.Point().Mul(kScalar, nil)
	v := curve.Suite.Point().Mul(kScalar, hPoint)

	c, err := challenge(g, hPoint, pk, gamma, u, v)
	if err != nil {
		return ozkshash.Hash{}, Proof{}, err
	}

	// s = k - c*sk mod q
	s := curve.Suite.Scalar().Sub(kScalar, curve.Suite.Scalar().Mul(c, k.sk))

	gammaEnc, err := curve.MarshalPoint(gamma)
	if err != nil {
		return ozkshash.Hash{}, Proof{}, xerrors.Errorf("ozks: vrf: marshal gamma: %w", err)
	}
	value := ozkshash.VRFOutputHash(gammaEnc)
	return value, Proof{Gamma: gamma, C: c, S: s}, nil
}

// VerifyProof checks proof against data and this public key, returning the
// verified VRF value on success.
func (pk PublicKey) VerifyProof(data []byte, proof Proof) (bool, ozkshash.Hash) {
	if !curve.IsPrimeOrder(proof.Gamma) {
		return false, ozkshash.Hash{}
	}

	g := curve.Generator()
	hPoint := curve.HashToCurve(data)

	// u' = c*pk + s*g
	uPrime := curve.Suite.Point().Add(
		curve.Suite.Point().Mul(proof.C, pk.pk),
		curve.Suite.Point().Mul(proof.S, nil),
	)
	// v' = c*gamma + s*H_curve(data)
	vPrime := curve.Suite.Point().Add(
		curve.Suite.Point().Mul(proof.C, proof.Gamma),
		curve.Suite.Point().Mul(proof.S, hPoint),
	)

	cExpected, err := challenge(g, hPoint, pk.pk, proof.Gamma, uPrime, vPrime)
	if err != nil {
		return false, ozkshash.Hash{}
	}
	if !cExpected.Equal(proof.C) {
		return false, ozkshash.Hash{}
	}

	gammaEnc, err := curve.MarshalPoint(proof.Gamma)
	if err != nil {
		return false, ozkshash.Hash{}
	}
	return true, ozkshash.VRFOutputHash(gammaEnc)
}

func challenge(points ...curve.Point) (curve.Scalar, error) {
	encoded := make([][]byte, len(points))
	for i, p := range points {
		enc, err := curve.MarshalPoint(p)
		if err != nil {
			return nil, xerrors.Errorf("ozks: vrf: marshal challenge point: %w", err)
		}
		encoded[i] = enc
	}
	digest := ozkshash.VRFProofHash(encoded...)
	return curve.ScalarFromChallenge(digest[:]), nil
}

func mustBytes(s curve.Scalar) []byte {
	b, err := curve.MarshalScalar(s)
	if err != nil {
		// A scalar produced by this package's own Pick/SetBytes calls
		// always marshals; failure here means kyber itself is broken.
		panic(err)
	}
	return b
}

// MarshalBinary encodes k for persistence.
func (k SecretKey) MarshalBinary() ([]byte, error) {
	return curve.MarshalScalar(k.sk)
}

// UnmarshalSecretKey decodes a secret key, rejecting values outside [0, q).
func UnmarshalSecretKey(data []byte) (SecretKey, error) {
	s, err := curve.UnmarshalScalar(data)
	if err != nil {
		return SecretKey{}, err
	}
	return SecretKey{sk: s}, nil
}

// MarshalBinary encodes pk for persistence.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return curve.MarshalPoint(pk.pk)
}

// UnmarshalPublicKey decodes a public key, rejecting points outside the
// prime-order subgroup.
func UnmarshalPublicKey(data []byte) (PublicKey, error) {
	p, err := curve.UnmarshalPoint(data)
	if err != nil {
		return PublicKey{}, err
	}
	if !curve.IsPrimeOrder(p) {
		return PublicKey{}, xerrors.New("ozks: vrf: public key outside the prime-order subgroup")
	}
	return PublicKey{pk: p}, nil
}

// MarshalBinary encodes a proof as gamma ‖ c ‖ s.
func (p Proof) MarshalBinary() ([]byte, error) {
	gammaEnc, err := curve.MarshalPoint(p.Gamma)
	if err != nil {
		return nil, err
	}
	cEnc, err := curve.MarshalScalar(p.C)
	if err != nil {
		return nil, err
	}
	sEnc, err := curve.MarshalScalar(p.S)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(gammaEnc)+len(cEnc)+len(sEnc))
	out = append(out, gammaEnc...)
	out = append(out, cEnc...)
	out = append(out, sEnc...)
	return out, nil
}

// UnmarshalProof decodes a proof from the fixed-width gamma/c/s encoding.
func UnmarshalProof(data []byte) (Proof, error) {
	pointLen := curve.Suite.PointLen()
	scalarLen := curve.Suite.ScalarLen()
	want := pointLen + 2*scalarLen
	if len(data) != want {
		return Proof{}, xerrors.Errorf("ozks: vrf: proof wrong size %d, want %d", len(data), want)
	}
	gamma, err := curve.UnmarshalPoint(data[:pointLen])
	if err != nil {
		return Proof{}, err
	}
	c, err := curve.UnmarshalScalar(data[pointLen : pointLen+scalarLen])
	if err != nil {
		return Proof{}, err
	}
	s, err := curve.UnmarshalScalar(data[pointLen+scalarLen:])
	if err != nil {
		return Proof{}, err
	}
	return Proof{Gamma: gamma, C: c, S: s}, nil
}
