package encoding

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

var errShortPayload = errors.New("truncated term payload")

// TermDecoder handles decoding of RDF terms
type TermDecoder struct{}

// NewTermDecoder creates a new term decoder
func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeTerm restores a term from a payload written by EncodePayload
func (d *TermDecoder) DecodeTerm(payload []byte) (rdf.Term, error) {
	if len(payload) == 0 {
		return nil, errShortPayload
	}

	termType := rdf.TermType(payload[0])
	rest := payload[1:]

	switch termType {
	case rdf.TermTypeNamedNode:
		values, err := readStrings(rest, 1)
		if err != nil {
			return nil, fmt.Errorf("named node: %w", err)
		}
		return rdf.NewNamedNode(values[0]), nil

	case rdf.TermTypeBlankNode:
		values, err := readStrings(rest, 1)
		if err != nil {
			return nil, fmt.Errorf("blank node: %w", err)
		}
		return rdf.NewBlankNode(values[0]), nil

	case rdf.TermTypeLiteral:
		values, err := readStrings(rest, 3)
		if err != nil {
			return nil, fmt.Errorf("literal: %w", err)
		}
		switch {
		case values[1] != "":
			return rdf.NewLiteralWithLanguage(values[0], values[1]), nil
		case values[2] != "":
			return rdf.NewLiteralWithDatatype(values[0], rdf.NewNamedNode(values[2])), nil
		default:
			return rdf.NewLiteral(values[0]), nil
		}

	case rdf.TermTypeDefaultGraph:
		return rdf.NewDefaultGraph(), nil

	default:
		return nil, fmt.Errorf("unknown term type: %d", termType)
	}
}

func readStrings(buf []byte, n int) ([]string, error) {
	values := make([]string, n)
	for i := range values {
		size, read := binary.Uvarint(buf)
		if read <= 0 || uint64(len(buf)-read) < size {
			return nil, errShortPayload
		}
		buf = buf[read:]
		values[i] = string(buf[:size])
		buf = buf[size:]
	}
	return values, nil
}
