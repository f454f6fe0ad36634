// =============================
// File: internal/mint/signature.go
// =============================
package mint

import (
	"github.com/mr-tron/base58"
)

// Signature – подпись транзакции в том виде, в каком её вернул отправитель:
// сырые байты или уже закодированная строка.
type Signature struct {
	raw  []byte
	text string
}

// RawSignature оборачивает подпись в байтах.
func RawSignature(b []byte) Signature {
	return Signature{raw: append([]byte(nil), b...)}
}

// TextSignature оборачивает подпись, уже представленную строкой.
func TextSignature(s string) Signature {
	return Signature{text: s}
}

// String возвращает каноническое base58 представление. Строковая подпись
// возвращается без изменений.
func (s Signature) String() string {
	if s.text != "" {
		return s.text
	}
	if len(s.raw) == 0 {
		return ""
	}
	return base58.Encode(s.raw)
}

// IsZero сообщает, что подпись пуста.
func (s Signature) IsZero() bool {
	return s.text == "" && len(s.raw) == 0
}
