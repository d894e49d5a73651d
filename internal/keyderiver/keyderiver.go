// Package keyderiver implements the external KeyDeriver contract described
// in spec.md §6: importing a 32-byte secret, deriving its secp256k1 public
// key, encoding the P2PKH address, and serializing the private key as WIF.
//
// The core search engine (internal/search) treats this package as a trusted
// black box; its internals follow the same derivation pipeline as a
// standard brute-force Bitcoin address generator: private key -> public
// key -> Hash160 -> version byte + checksum -> base58.
package keyderiver

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/btcutil/base58"
	sha256simd "github.com/minio/sha256-simd"
)

// ErrInvalidRange is returned by ImportSecret when the supplied bytes are
// zero or fall outside [1, N-1] for the secp256k1 group order N.
var ErrInvalidRange = errors.New("keyderiver: secret out of valid range")

// secp256k1 group order N, a public curve parameter (not a secret).
var curveOrderN, _ = new(big.Int).SetString(
	"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// Network pins the P2PKH version byte and the chaincfg parameters used for
// WIF encoding. Mainnet and Testnet are the two supported values; the core
// never constructs a Network itself (spec.md's network.current contract).
type Network struct {
	Name    string
	Version byte
	params  *chaincfg.Params
}

var (
	Mainnet = Network{
		Name:    "mainnet",
		Version: chaincfg.MainNetParams.PubKeyHashAddrID,
		params:  &chaincfg.MainNetParams,
	}
	Testnet = Network{
		Name:    "testnet",
		Version: chaincfg.TestNet3Params.PubKeyHashAddrID,
		params:  &chaincfg.TestNet3Params,
	}
)

// Secret is an opaque 32-byte private key plus the compression flag that
// controls how its public key is serialized (spec.md §3).
type Secret struct {
	bytes      [32]byte
	compressed bool
}

// ImportSecret validates and wraps 32 raw bytes as a Secret.
func ImportSecret(raw []byte, compressed bool) (Secret, error) {
	if len(raw) != 32 {
		return Secret{}, fmt.Errorf("keyderiver: secret must be 32 bytes, got %d", len(raw))
	}
	n := new(big.Int).SetBytes(raw)
	if n.Sign() == 0 || n.Cmp(curveOrderN) >= 0 {
		return Secret{}, ErrInvalidRange
	}
	var s Secret
	copy(s.bytes[:], raw)
	s.compressed = compressed
	return s, nil
}

// Bytes returns the raw 32-byte secret.
func (s Secret) Bytes() [32]byte { return s.bytes }

// Compressed reports the compression flag.
func (s Secret) Compressed() bool { return s.compressed }

// Deriver derives P2PKH addresses and WIF strings for a fixed network. A
// Deriver is safe for concurrent use by multiple worker goroutines; the
// buffer pool below exists purely to reduce allocator traffic on the
// address-derivation hot path.
type Deriver struct {
	network Network
	bufPool sync.Pool
}

// New constructs a Deriver bound to network.
func New(network Network) *Deriver {
	return &Deriver{
		network: network,
		bufPool: sync.Pool{
			New: func() interface{} {
				return make([]byte, 0, 128)
			},
		},
	}
}

// Network returns the deriver's configured network.
func (d *Deriver) Network() Network { return d.network }

// Address derives the P2PKH address for secret: version byte + Hash160 of
// the (compressed or uncompressed) public key + double-SHA256 checksum,
// base58-encoded.
func (d *Deriver) Address(secret Secret) (string, error) {
	pubKeyBytes, err := d.derivePubKey(secret)
	if err != nil {
		return "", err
	}

	hash160 := btcutil.Hash160(pubKeyBytes)

	buf := d.bufPool.Get().([]byte)[:0]
	defer d.bufPool.Put(buf)

	buf = append(buf, d.network.Version)
	buf = append(buf, hash160...)

	h1 := sha256simd.Sum256(buf)
	h2 := sha256simd.Sum256(h1[:])
	buf = append(buf, h2[:4]...)

	return base58.Encode(buf), nil
}

func (d *Deriver) derivePubKey(secret Secret) ([]byte, error) {
	b := secret.bytes
	privKey, pubKey := btcec.PrivKeyFromBytes(b[:])
	if privKey == nil || pubKey == nil {
		return nil, fmt.Errorf("keyderiver: public key derivation failed")
	}
	if secret.compressed {
		return pubKey.SerializeCompressed(), nil
	}
	return pubKey.SerializeUncompressed(), nil
}

// WIF encodes secret as a base58check Wallet Import Format string, via
// btcutil's WIF type (realizing gravedigger's privkey_to_wif).
func (d *Deriver) WIF(secret Secret) (string, error) {
	b := secret.bytes
	privKey, _ := btcec.PrivKeyFromBytes(b[:])
	wif, err := btcutil.NewWIF(privKey, d.network.params, secret.compressed)
	if err != nil {
		return "", fmt.Errorf("keyderiver: wif encode: %w", err)
	}
	return wif.String(), nil
}
