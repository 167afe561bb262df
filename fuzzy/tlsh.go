package fuzzy

import (
	"bufio"
	"bytes"

	"github.com/glaslos/tlsh"
)

// MinInputSize is the smallest payload TLSH produces a digest for.
const MinInputSize = 256

type TLSHHasher struct{}

func (h TLSHHasher) Name() string {
	return "tlsh"
}

func (h TLSHHasher) HashBytes(data []byte) (string, error) {
	hash, err := tlsh.HashReader(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

func init() {
	Register(TLSHHasher{})
}
