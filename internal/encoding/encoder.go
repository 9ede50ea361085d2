package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
	"github.com/zeebo/xxh3"
)

const (
	// Encoded term size (type byte + 16 bytes for 128-bit hash)
	EncodedTermSize = 17
)

// EncodedTerm represents a term encoded as a type byte followed by a
// 128-bit hash of its canonical key
type EncodedTerm [EncodedTermSize]byte

// TermEncoder handles encoding of RDF terms into fixed-size index keys and
// exact payloads
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.Hash128([]byte(s))
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an RDF term into a fixed-size byte array. Two terms
// encode identically exactly when they are equal.
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, error) {
	var encoded EncodedTerm

	switch term.(type) {
	case *rdf.NamedNode, *rdf.BlankNode, *rdf.Literal, *rdf.DefaultGraph:
	default:
		return encoded, fmt.Errorf("unknown term type: %T", term)
	}

	encoded[0] = byte(term.Type())
	hash := e.Hash128(term.Key())
	copy(encoded[1:], hash[:])

	return encoded, nil
}

// EncodePayload serializes a term so that DecodeTerm restores it exactly,
// including the lexical form and the datatype as written.
func (e *TermEncoder) EncodePayload(term rdf.Term) ([]byte, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return appendStrings([]byte{byte(rdf.TermTypeNamedNode)}, t.IRI), nil
	case *rdf.BlankNode:
		return appendStrings([]byte{byte(rdf.TermTypeBlankNode)}, t.ID), nil
	case *rdf.Literal:
		datatype := ""
		if t.Datatype != nil {
			datatype = t.Datatype.IRI
		}
		return appendStrings([]byte{byte(rdf.TermTypeLiteral)}, t.Value, t.Language, datatype), nil
	case *rdf.DefaultGraph:
		return []byte{byte(rdf.TermTypeDefaultGraph)}, nil
	default:
		return nil, fmt.Errorf("unknown term type: %T", term)
	}
}

// EncodeTripleKey concatenates encoded terms into an index key. Keys sort
// lexicographically by their leading terms, so a key built from the first
// one or two terms is a scan prefix.
func (e *TermEncoder) EncodeTripleKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// SplitTripleKey splits an index key back into its encoded terms
func SplitTripleKey(key []byte) ([]EncodedTerm, error) {
	if len(key)%EncodedTermSize != 0 {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}
	terms := make([]EncodedTerm, len(key)/EncodedTermSize)
	for i := range terms {
		copy(terms[i][:], key[i*EncodedTermSize:(i+1)*EncodedTermSize])
	}
	return terms, nil
}

// GetTermType extracts the type from an encoded term
func GetTermType(encoded EncodedTerm) rdf.TermType {
	return rdf.TermType(encoded[0])
}

func appendStrings(buf []byte, values ...string) []byte {
	for _, v := range values {
		buf = binary.AppendUvarint(buf, uint64(len(v)))
		buf = append(buf, v...)
	}
	return buf
}
