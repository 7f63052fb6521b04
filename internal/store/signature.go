package store

import (
	"hash/fnv"
	"math"

	"pzscript/internal/parser"

	pgvector "github.com/pgvector/pgvector-go"
)

// SignatureDims is the length of a record signature.
const SignatureDims = 64

// Signature hashes a block's property keys and slot tokens into a fixed-size,
// L2-normalized vector. Blocks sharing vocabulary land close together.
func Signature(b *parser.Block) pgvector.Vector {
	vec := make([]float32, SignatureDims)
	add := func(prefix, token string) {
		h := fnv.New32a()
		h.Write([]byte(prefix))
		h.Write([]byte(token))
		vec[h.Sum32()%SignatureDims]++
	}

	_, keys := b.Effective()
	for _, k := range keys {
		add("p:", k)
	}
	for _, slots := range [][]parser.Slot{b.Inputs, b.Outputs} {
		for _, s := range slots {
			for _, it := range s.Items {
				add("i:", it)
			}
			for _, t := range s.Tags {
				add("t:", t)
			}
			for _, f := range s.Flags {
				add("f:", f)
			}
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Cosine distance is undefined for the zero vector.
		vec[0] = 1
		return pgvector.NewVector(vec)
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return pgvector.NewVector(vec)
}
