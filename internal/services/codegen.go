package services

import (
	"crypto/rand"
	"fmt"
)

// Alfabeto del código de verificación: mayúsculas y dígitos sin los
// caracteres ambiguos I, O, 0 y 1. Son 32 símbolos, así que cada
// carácter aporta 5 bits exactos y no hay sesgo por módulo.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength es la longitud del código de verificación. Con 20
// caracteres de 5 bits el código lleva 100 bits de entropía.
const CodeLength = 20

// GenerateVerificationCode genera un código de verificación aleatorio
// criptográficamente seguro. La unicidad la garantiza el caller
// consultando el store y reintentando ante colisión.
func GenerateVerificationCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("error reading random bytes: %w", err)
	}

	code := make([]byte, CodeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	return string(code), nil
}
