package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	letterBytes  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberBytes  = "0123456789"
	alphanumeric = letterBytes + numberBytes
)

// GenerateRedemptionCode produces a human-readable uppercase code for a
// redemption receipt.
func GenerateRedemptionCode() string {
	return generateRandom(RedemptionCodeLen, alphanumeric)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}
