package ntlm

import (
	"fmt"
	"strings"

	"github.com/smnsjas/go-httpauth/internal/charset"
)

const (
	lmPasswordSize = 14
	lmHashSize     = 21 // 16 byte hash, zero padded to three 7 byte keys
)

// LMResponse computes the 24 byte LM response to nonce for password.
func (e *Engine) LMResponse(password string, nonce Nonce) ([LMResponseSize]byte, error) {
	var resp [LMResponseSize]byte
	hash, err := e.lmHash(password)
	if err != nil {
		return resp, err
	}
	for i := 0; i < 3; i++ {
		out, err := e.encrypt(hash[i*7:i*7+7], nonce[:])
		if err != nil {
			return resp, err
		}
		copy(resp[i*8:], out)
	}
	return resp, nil
}

// lmHash returns the LM one-way function of password, zero padded to 21 bytes.
func (e *Engine) lmHash(password string) ([lmHashSize]byte, error) {
	var hash [lmHashSize]byte
	encoded, err := charset.Encode(e.charset, strings.ToUpper(password))
	if err != nil {
		return hash, fmt.Errorf("encode password: %w", err)
	}
	var pw [lmPasswordSize]byte
	copy(pw[:], encoded)

	low, err := e.encrypt(pw[:7], lmMagic)
	if err != nil {
		return hash, err
	}
	high, err := e.encrypt(pw[7:], lmMagic)
	if err != nil {
		return hash, err
	}
	copy(hash[0:], low)
	copy(hash[8:], high)
	return hash, nil
}

// encrypt DES-ECB encrypts one 8 byte block with a 56 bit key.
func (e *Engine) encrypt(key56, block []byte) ([]byte, error) {
	if e.newCipher == nil {
		return nil, ErrCryptoUnavailable
	}
	c, err := e.newCipher(expandKey(key56))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if c.BlockSize() != len(block) {
		return nil, fmt.Errorf("%w: block size %d", ErrCryptoUnavailable, c.BlockSize())
	}
	out := make([]byte, len(block))
	c.Encrypt(out, block)
	return out, nil
}

// expandKey spreads 7 key bytes over 8, seven bits each, leaving the low
// (parity) bit of every output byte clear.
func expandKey(k []byte) []byte {
	key := []byte{
		k[0] >> 1,
		(k[0]&0x01)<<6 | k[1]>>2,
		(k[1]&0x03)<<5 | k[2]>>3,
		(k[2]&0x07)<<4 | k[3]>>4,
		(k[3]&0x0f)<<3 | k[4]>>5,
		(k[4]&0x1f)<<2 | k[5]>>6,
		(k[5]&0x3f)<<1 | k[6]>>7,
		k[6] & 0x7f,
	}
	for i := range key {
		key[i] <<= 1
	}
	return key
}
