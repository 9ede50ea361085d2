package encoding

import (
	"bytes"
	"testing"

	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

func TestEncodeTerm_EqualTermsEncodeEqually(t *testing.T) {
	encoder := NewTermEncoder()

	tests := []struct {
		name string
		a, b rdf.Term
		same bool
	}{
		{"same IRI", rdf.NewNamedNode("http://example.org/a"), rdf.NewNamedNode("http://example.org/a"), true},
		{"different IRI", rdf.NewNamedNode("http://example.org/a"), rdf.NewNamedNode("http://example.org/b"), false},
		{"simple vs xsd:string", rdf.NewLiteral("x"), rdf.NewLiteralWithDatatype("x", rdf.XSDString), true},
		{"language case", rdf.NewLiteralWithLanguage("x", "EN"), rdf.NewLiteralWithLanguage("x", "en"), true},
		{"lexical forms differ", rdf.NewLiteralWithDatatype("1", rdf.XSDInteger), rdf.NewLiteralWithDatatype("01", rdf.XSDInteger), false},
		{"IRI vs literal", rdf.NewNamedNode("x"), rdf.NewLiteral("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := encoder.EncodeTerm(tt.a)
			if err != nil {
				t.Fatalf("failed to encode: %v", err)
			}
			b, err := encoder.EncodeTerm(tt.b)
			if err != nil {
				t.Fatalf("failed to encode: %v", err)
			}
			if (a == b) != tt.same {
				t.Errorf("expected same=%v for %s and %s", tt.same, tt.a, tt.b)
			}
		})
	}
}

func TestEncodeTerm_RejectsVariables(t *testing.T) {
	encoder := NewTermEncoder()
	if _, err := encoder.EncodeTerm(rdf.NewVariable("x")); err == nil {
		t.Error("expected error encoding a variable")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	encoder := NewTermEncoder()
	decoder := NewTermDecoder()

	terms := []rdf.Term{
		rdf.NewNamedNode("http://example.org/resource"),
		rdf.NewBlankNode("b0"),
		rdf.NewLiteral(""),
		rdf.NewLiteral("with\x00nul"),
		rdf.NewLiteralWithLanguage("hello", "en-GB"),
		rdf.NewLiteralWithDatatype("007", rdf.XSDInteger),
		rdf.NewDefaultGraph(),
	}

	for _, term := range terms {
		t.Run(term.String(), func(t *testing.T) {
			payload, err := encoder.EncodePayload(term)
			if err != nil {
				t.Fatalf("failed to encode: %v", err)
			}
			decoded, err := decoder.DecodeTerm(payload)
			if err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if decoded.String() != term.String() {
				t.Errorf("expected %s, got %s", term, decoded)
			}
		})
	}
}

func TestDecodeTerm_Truncated(t *testing.T) {
	encoder := NewTermEncoder()
	decoder := NewTermDecoder()

	payload, _ := encoder.EncodePayload(rdf.NewNamedNode("http://example.org/a"))
	if _, err := decoder.DecodeTerm(payload[:len(payload)-3]); err == nil {
		t.Error("expected error for truncated payload")
	}
	if _, err := decoder.DecodeTerm(nil); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestTripleKeyPrefix(t *testing.T) {
	encoder := NewTermEncoder()

	s, _ := encoder.EncodeTerm(rdf.NewNamedNode("http://example.org/s"))
	p, _ := encoder.EncodeTerm(rdf.NewNamedNode("http://example.org/p"))
	o, _ := encoder.EncodeTerm(rdf.NewLiteral("o"))

	key := encoder.EncodeTripleKey(s, p, o)
	if !bytes.HasPrefix(key, encoder.EncodeTripleKey(s, p)) {
		t.Error("subject-predicate key should prefix the full key")
	}

	parts, err := SplitTripleKey(key)
	if err != nil {
		t.Fatalf("failed to split: %v", err)
	}
	if len(parts) != 3 || parts[0] != s || parts[1] != p || parts[2] != o {
		t.Error("split key does not match encoded terms")
	}
	if GetTermType(parts[2]) != rdf.TermTypeLiteral {
		t.Errorf("expected literal type, got %d", GetTermType(parts[2]))
	}

	if _, err := SplitTripleKey(key[:5]); err == nil {
		t.Error("expected error for short key")
	}
}
