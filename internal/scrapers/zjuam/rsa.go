package zjuam

import (
	"fmt"
	"math/big"
	"strings"
)

// minCipherWidth is the width of the ciphertext the identity provider expects,
// its login page pads the hex string to 128 characters.
const minCipherWidth = 128

// EncryptPassword encrypts the password the same way the identity provider's login
// page does: the utf-8 bytes are read as a big-endian integer and raised to the
// public exponent mod the modulus, with no padding scheme. The result is lowercase
// hex, left padded with zeros to the width of the modulus (at least 128 characters).
func EncryptPassword(password, modulusHex, exponentHex string) (string, error) {
	modulus, ok := new(big.Int).SetString(strings.TrimSpace(modulusHex), 16)
	if !ok || modulus.Sign() <= 0 {
		return "", fmt.Errorf("invalid rsa modulus %q", modulusHex)
	}
	exponent, ok := new(big.Int).SetString(strings.TrimSpace(exponentHex), 16)
	if !ok || exponent.Sign() <= 0 {
		return "", fmt.Errorf("invalid rsa exponent %q", exponentHex)
	}

	message := new(big.Int).SetBytes([]byte(password))
	cipher := new(big.Int).Exp(message, exponent, modulus)

	width := (modulus.BitLen() + 7) / 8 * 2
	if width < minCipherWidth {
		width = minCipherWidth
	}
	encoded := cipher.Text(16)
	if len(encoded) < width {
		encoded = strings.Repeat("0", width-len(encoded)) + encoded
	}
	return encoded, nil
}
