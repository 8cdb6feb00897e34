package compose

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"

	"github.com/speps/go-hashids/v2"
)

// CodeGenerator produces short, non-guessable session codes. Same role as an
// order-number generator: opaque, human-pasteable identifiers derived from a
// secret so codes are not enumerable across deployments.
type CodeGenerator struct {
	hd  *hashids.HashID
	seq atomic.Uint64
}

func NewCodeGenerator(salt string) (*CodeGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	hd, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &CodeGenerator{hd: hd}, nil
}

func (g *CodeGenerator) Next() (string, error) {
	var nonce [4]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	n := g.seq.Add(1)
	return g.hd.Encode([]int{
		int(n),
		int(binary.BigEndian.Uint32(nonce[:]) % 99991),
	})
}
