// Package eth wraps the wallet signature scheme used by the authentication
// flow: EIP-191 personal-sign over the human-readable challenge message.
package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const signatureLength = 65

// RecoverSigner recovers the address that produced the personal-sign
// signature over message. The signature is the 0x-prefixed 65-byte
// R || S || V form produced by wallet providers.
func RecoverSigner(message string, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("decoding signature: %w", err)
	}
	if len(sig) != signatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", signatureLength, len(sig))
	}

	// Wallets return V as 27/28, go-ethereum expects 0/1.
	if sig[64] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[64] -= 27
	}

	hash := accounts.TextHash([]byte(message))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recovering public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySigner reports whether the signature over message was produced by
// address. Address comparison is checksum-insensitive.
func VerifySigner(address, message, signature string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("not a hex address: %q", address)
	}
	recovered, err := RecoverSigner(message, signature)
	if err != nil {
		return false, err
	}
	return recovered == common.HexToAddress(address), nil
}
