package wire

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/salsa20"
)

type SealFunc func(*Frame, []byte) (int, error)
type UnsealFunc func([]byte) (*MutFrame, error)

const (
	E_METHOD_PLAIN = iota
	E_METHOD_AES_GCM
	E_METHOD_CHACHA20_POLY1305
)

// A Sealer pairs the sealing and unsealing directions of one session key.
type Sealer struct {
	Seal       SealFunc
	Unseal     UnsealFunc
	SessionKey []byte
}

// MakeSeal returns a SealFunc that serialises a frame into a caller
// supplied buffer: the header is rewritten with the true payload length,
// the payload is encrypted under payloadCipher (nil for plain), and the
// header is finally XORed with a salsa20 stream so no plaintext structure
// appears on the wire. buf must not overlap the frame's own buffer.
// The salsa20 nonce is the last 8 bytes of the
// encrypted payload section, which is why a sealed frame always carries at
// least 8 bytes after the header.
func MakeSeal(salsaKey [32]byte, payloadCipher cipher.AEAD) SealFunc {
	seal := func(f *Frame, buf []byte) (int, error) {
		// plain frames with payloads under 8 bytes get random padding so the
		// nonce section always exists; AEAD overhead covers it otherwise
		var extraLen int
		if payloadCipher == nil {
			if len(f.body) < 8 {
				extraLen = 8 - len(f.body)
			}
		} else {
			extraLen = payloadCipher.Overhead()
		}

		usefulLen := HEADER_LEN + len(f.body) + extraLen
		if len(buf) < usefulLen {
			return 0, ErrShortBuffer
		}
		// we do as much in-place as possible to save allocation
		useful := buf[:usefulLen]
		header := Header(useful[:HEADER_LEN])
		sealedPayloadWithExtra := useful[HEADER_LEN:]

		copy(header, f.header)
		// the declared length is what lets Unseal strip the padding or
		// overhead again
		header.SetLength(uint32(len(f.body)))

		if payloadCipher == nil {
			copy(sealedPayloadWithExtra, f.body)
			if extraLen != 0 {
				rand.Read(sealedPayloadWithExtra[len(sealedPayloadWithExtra)-extraLen:])
			}
		} else {
			// TODO: two frames with identical header fields reuse an AEAD
			// nonce; add a sequence field to the header before this codec is
			// used for anything beyond link obfuscation
			payloadCipher.Seal(sealedPayloadWithExtra[:0], header, f.body, nil)
		}

		nonce := sealedPayloadWithExtra[len(sealedPayloadWithExtra)-8:]
		salsa20.XORKeyStream(header, header, nonce, &salsaKey)
		return usefulLen, nil
	}
	return seal
}

// MakeUnseal returns the inverse of MakeSeal. The input buffer is copied
// before decryption so a failed unseal never corrupts the caller's bytes;
// the returned frame views the copy.
func MakeUnseal(salsaKey [32]byte, payloadCipher cipher.AEAD) UnsealFunc {
	unseal := func(in []byte) (*MutFrame, error) {
		if len(in) < HEADER_LEN+8 {
			return nil, errors.New("sealed frame cannot be shorter than 20 bytes")
		}

		peeled := make([]byte, len(in))
		copy(peeled, in)

		header := Header(peeled[:HEADER_LEN])
		sealedPayloadWithExtra := peeled[HEADER_LEN:]

		nonce := peeled[len(peeled)-8:]
		salsa20.XORKeyStream(header, header, nonce, &salsaKey)

		declaredLen := int(header.Length())
		if payloadCipher == nil {
			if declaredLen > len(sealedPayloadWithExtra) {
				return nil, errors.New("declared length is greater than the sealed payload length")
			}
		} else {
			if declaredLen+payloadCipher.Overhead() != len(sealedPayloadWithExtra) {
				return nil, errors.New("sealed payload length doesn't match declared length plus AEAD overhead")
			}
			_, err := payloadCipher.Open(sealedPayloadWithExtra[:0], header, sealedPayloadWithExtra, nil)
			if err != nil {
				return nil, err
			}
		}

		// a garbled key or nonce shows up here as an invalid tag
		return ParseMut(peeled[:HEADER_LEN+declaredLen])
	}
	return unseal
}

// GenerateSealer builds a Sealer for a 32-byte session key under one of
// the E_METHOD_* encryption methods.
func GenerateSealer(encryptionMethod byte, sessionKey []byte) (sealer *Sealer, err error) {
	if len(sessionKey) != 32 {
		return nil, errors.New("sessionKey size must be 32 bytes")
	}

	var salsaKey [32]byte
	copy(salsaKey[:], sessionKey)

	var payloadCipher cipher.AEAD
	switch encryptionMethod {
	case E_METHOD_PLAIN:
		payloadCipher = nil
	case E_METHOD_AES_GCM:
		var c cipher.Block
		c, err = aes.NewCipher(sessionKey)
		if err != nil {
			return
		}
		payloadCipher, err = cipher.NewGCM(c)
		if err != nil {
			return
		}
	case E_METHOD_CHACHA20_POLY1305:
		payloadCipher, err = chacha20poly1305.New(sessionKey)
		if err != nil {
			return
		}
	default:
		return nil, errors.New("unknown encryption method")
	}

	sealer = &Sealer{
		Seal:       MakeSeal(salsaKey, payloadCipher),
		Unseal:     MakeUnseal(salsaKey, payloadCipher),
		SessionKey: sessionKey,
	}
	return
}
