// Package address validates classic XRPL account addresses.
//
// Only the syntactic shape is checked: base58 alphabet, version byte,
// payload length and the double-SHA256 checksum. Whether the account
// actually exists on the ledger is not this package's concern.
package address

import (
	"bytes"
	"crypto/sha256"
	"errors"
)

// xrplAlphabet is the base58 dictionary used by rippled for addresses.
const xrplAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// accountIDVersion is the version byte prefixed to 20-byte account IDs,
// which makes encoded addresses start with 'r'.
const accountIDVersion = 0x00

const accountIDSize = 20

var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrInvalidChecksum = errors.New("invalid address checksum")
)

// IsValid reports whether s is a syntactically valid classic address.
func IsValid(s string) bool {
	_, err := Decode(s)
	return err == nil
}

// Decode decodes a classic address into its 20-byte account ID.
func Decode(s string) ([accountIDSize]byte, error) {
	var id [accountIDSize]byte

	if len(s) == 0 || s[0] != 'r' {
		return id, ErrInvalidAddress
	}

	decoded, err := decodeBase58Check(s)
	if err != nil {
		return id, err
	}
	if len(decoded) != accountIDSize+1 || decoded[0] != accountIDVersion {
		return id, ErrInvalidAddress
	}

	copy(id[:], decoded[1:])
	return id, nil
}

// decodeBase58Check decodes a base58check encoded string using the XRPL
// alphabet and verifies the trailing 4-byte double-SHA256 checksum.
func decodeBase58Check(input string) ([]byte, error) {
	result := make([]byte, 0, len(input))

	for i := 0; i < len(input); i++ {
		c := input[i]
		digit := int64(-1)
		for j := 0; j < len(xrplAlphabet); j++ {
			if xrplAlphabet[j] == c {
				digit = int64(j)
				break
			}
		}
		if digit < 0 {
			return nil, ErrInvalidAddress
		}

		// Multiply result by 58 and add digit
		carry := digit
		for j := len(result) - 1; j >= 0; j-- {
			carry += int64(result[j]) * 58
			result[j] = byte(carry & 0xff)
			carry >>= 8
		}
		for carry > 0 {
			result = append([]byte{byte(carry & 0xff)}, result...)
			carry >>= 8
		}
	}

	// Add leading zeros
	for i := 0; i < len(input) && input[i] == xrplAlphabet[0]; i++ {
		result = append([]byte{0}, result...)
	}

	if len(result) < 5 {
		return nil, ErrInvalidAddress
	}

	payload, checksum := result[:len(result)-4], result[len(result)-4:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:4], checksum) {
		return nil, ErrInvalidChecksum
	}

	return payload, nil
}
