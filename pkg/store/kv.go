package store

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aleksaelezovic/trimem/internal/encoding"
	"github.com/aleksaelezovic/trimem/internal/storage"
	"github.com/aleksaelezovic/trimem/pkg/rdf"
)

// KVCollection keeps triples in a sorted key-value store under the SPO,
// POS and OSP orderings. Terms are stored once in a dictionary keyed by
// their fixed-width encoding; lookups are prefix scans of the table whose
// ordering starts with the fixed positions.
//
// The default backend is badger in in-memory mode. Backend failures are
// logged and reported as a no-op or an empty result.
type KVCollection struct {
	storage storage.Storage
	encoder *encoding.TermEncoder
	decoder *encoding.TermDecoder
	logger  *slog.Logger
	count   atomic.Int64
}

// NewKVCollection creates an empty collection over a fresh in-memory
// badger instance
func NewKVCollection(logger *slog.Logger) (*KVCollection, error) {
	st, err := storage.NewInMemoryBadgerStorage()
	if err != nil {
		return nil, err
	}
	return NewKVCollectionWithStorage(st, logger), nil
}

// NewKVCollectionWithStorage creates a collection over st, which must be
// empty. The collection takes ownership of st.
func NewKVCollectionWithStorage(st storage.Storage, logger *slog.Logger) *KVCollection {
	if logger == nil {
		logger = slog.Default()
	}
	return &KVCollection{
		storage: st,
		encoder: encoding.NewTermEncoder(),
		decoder: encoding.NewTermDecoder(),
		logger:  logger,
	}
}

type encodedTriple struct {
	s, p, o encoding.EncodedTerm
}

func (c *KVCollection) encodeTriple(t *rdf.Triple) (encodedTriple, error) {
	var enc encodedTriple
	var err error
	if enc.s, err = c.encoder.EncodeTerm(t.Subject); err != nil {
		return enc, fmt.Errorf("failed to encode subject: %w", err)
	}
	if enc.p, err = c.encoder.EncodeTerm(t.Predicate); err != nil {
		return enc, fmt.Errorf("failed to encode predicate: %w", err)
	}
	if enc.o, err = c.encoder.EncodeTerm(t.Object); err != nil {
		return enc, fmt.Errorf("failed to encode object: %w", err)
	}
	return enc, nil
}

func (c *KVCollection) Add(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	added, err := c.add(t)
	if err != nil {
		c.logger.Error("failed to add triple", "triple", t.String(), "error", err)
		return false
	}
	return added
}

func (c *KVCollection) add(t *rdf.Triple) (bool, error) {
	enc, err := c.encodeTriple(t)
	if err != nil {
		return false, err
	}

	txn, err := c.storage.Begin(true)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	spoKey := c.encoder.EncodeTripleKey(enc.s, enc.p, enc.o)
	exists, err := txn.Has(storage.TableSPO, spoKey)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	// Store term payloads in the dictionary
	for _, pair := range []struct {
		enc  encoding.EncodedTerm
		term rdf.Term
	}{{enc.s, t.Subject}, {enc.p, t.Predicate}, {enc.o, t.Object}} {
		if err := c.storeTerm(txn, pair.enc, pair.term); err != nil {
			return false, err
		}
	}

	// Empty value for all index entries
	emptyValue := []byte{}
	if err := txn.Set(storage.TableSPO, spoKey, emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(storage.TablePOS, c.encoder.EncodeTripleKey(enc.p, enc.o, enc.s), emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(storage.TableOSP, c.encoder.EncodeTripleKey(enc.o, enc.s, enc.p), emptyValue); err != nil {
		return false, err
	}

	if err := txn.Commit(); err != nil {
		return false, err
	}
	c.count.Add(1)
	return true, nil
}

// storeTerm writes the payload of a term unless the dictionary already
// holds it
func (c *KVCollection) storeTerm(txn storage.Transaction, enc encoding.EncodedTerm, term rdf.Term) error {
	exists, err := txn.Has(storage.TableID2Term, enc[:])
	if err != nil || exists {
		return err
	}
	payload, err := c.encoder.EncodePayload(term)
	if err != nil {
		return err
	}
	return txn.Set(storage.TableID2Term, enc[:], payload)
}

func (c *KVCollection) Remove(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	removed, err := c.remove(t)
	if err != nil {
		c.logger.Error("failed to remove triple", "triple", t.String(), "error", err)
		return false
	}
	return removed
}

func (c *KVCollection) remove(t *rdf.Triple) (bool, error) {
	enc, err := c.encodeTriple(t)
	if err != nil {
		return false, err
	}

	txn, err := c.storage.Begin(true)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	spoKey := c.encoder.EncodeTripleKey(enc.s, enc.p, enc.o)
	exists, err := txn.Has(storage.TableSPO, spoKey)
	if err != nil || !exists {
		return false, err
	}

	if err := txn.Delete(storage.TableSPO, spoKey); err != nil {
		return false, err
	}
	if err := txn.Delete(storage.TablePOS, c.encoder.EncodeTripleKey(enc.p, enc.o, enc.s)); err != nil {
		return false, err
	}
	if err := txn.Delete(storage.TableOSP, c.encoder.EncodeTripleKey(enc.o, enc.s, enc.p)); err != nil {
		return false, err
	}

	if err := txn.Commit(); err != nil {
		return false, err
	}
	c.count.Add(-1)
	return true, nil
}

func (c *KVCollection) Contains(t *rdf.Triple) bool {
	if !storable(t) {
		return false
	}
	enc, err := c.encodeTriple(t)
	if err != nil {
		return false
	}

	txn, err := c.storage.Begin(false)
	if err != nil {
		c.logger.Error("failed to begin read", "error", err)
		return false
	}
	defer txn.Rollback()

	exists, err := txn.Has(storage.TableSPO, c.encoder.EncodeTripleKey(enc.s, enc.p, enc.o))
	if err != nil {
		c.logger.Error("failed to check triple", "error", err)
		return false
	}
	return exists
}

func (c *KVCollection) Count() int {
	return int(c.count.Load())
}

// Clear drops every index entry. The term dictionary is kept since it
// only grows with distinct terms.
func (c *KVCollection) Clear() {
	txn, err := c.storage.Begin(true)
	if err != nil {
		c.logger.Error("failed to begin clear", "error", err)
		return
	}
	defer txn.Rollback()

	for _, table := range []storage.Table{storage.TableSPO, storage.TablePOS, storage.TableOSP} {
		keys, err := c.scanKeys(txn, table, nil)
		if err != nil {
			c.logger.Error("failed to scan table", "table", table.String(), "error", err)
			return
		}
		for _, key := range keys {
			if err := txn.Delete(table, key); err != nil {
				c.logger.Error("failed to delete key", "table", table.String(), "error", err)
				return
			}
		}
	}

	if err := txn.Commit(); err != nil {
		c.logger.Error("failed to commit clear", "error", err)
		return
	}
	c.count.Store(0)
}

func (c *KVCollection) Close() error {
	return c.storage.Close()
}

func (c *KVCollection) Triples() []*rdf.Triple {
	return c.lookup(storage.TableSPO)
}

func (c *KVCollection) WithSubject(s rdf.Term) []*rdf.Triple {
	return c.lookup(storage.TableSPO, s)
}

func (c *KVCollection) WithPredicate(p rdf.Term) []*rdf.Triple {
	return c.lookup(storage.TablePOS, p)
}

func (c *KVCollection) WithObject(o rdf.Term) []*rdf.Triple {
	return c.lookup(storage.TableOSP, o)
}

func (c *KVCollection) WithSubjectPredicate(s, p rdf.Term) []*rdf.Triple {
	return c.lookup(storage.TableSPO, s, p)
}

func (c *KVCollection) WithSubjectObject(s, o rdf.Term) []*rdf.Triple {
	return c.lookup(storage.TableOSP, o, s)
}

func (c *KVCollection) WithPredicateObject(p, o rdf.Term) []*rdf.Triple {
	return c.lookup(storage.TablePOS, p, o)
}

func (c *KVCollection) SubjectNodes() []rdf.Term {
	return c.leadingNodes(storage.TableSPO)
}

func (c *KVCollection) PredicateNodes() []rdf.Term {
	return c.leadingNodes(storage.TablePOS)
}

func (c *KVCollection) ObjectNodes() []rdf.Term {
	return c.leadingNodes(storage.TableOSP)
}

// lookup scans table with a prefix built from the fixed terms, given in
// the table's ordering, and decodes the matching triples
func (c *KVCollection) lookup(table storage.Table, fixed ...rdf.Term) []*rdf.Triple {
	prefix := make([]encoding.EncodedTerm, len(fixed))
	for i, term := range fixed {
		enc, err := c.encoder.EncodeTerm(term)
		if err != nil {
			return nil
		}
		prefix[i] = enc
	}

	txn, err := c.storage.Begin(false)
	if err != nil {
		c.logger.Error("failed to begin read", "error", err)
		return nil
	}
	defer txn.Rollback()

	keys, err := c.scanKeys(txn, table, c.encoder.EncodeTripleKey(prefix...))
	if err != nil {
		c.logger.Error("failed to scan table", "table", table.String(), "error", err)
		return nil
	}

	terms := make(map[encoding.EncodedTerm]rdf.Term)
	result := make([]*rdf.Triple, 0, len(keys))
	for _, key := range keys {
		t, err := c.decodeTriple(txn, table, key, terms)
		if err != nil {
			c.logger.Error("failed to decode triple", "table", table.String(), "error", err)
			return nil
		}
		result = append(result, t)
	}
	return result
}

// leadingNodes lists the distinct first terms of a table. Keys sharing a
// first term are adjacent.
func (c *KVCollection) leadingNodes(table storage.Table) []rdf.Term {
	txn, err := c.storage.Begin(false)
	if err != nil {
		c.logger.Error("failed to begin read", "error", err)
		return nil
	}
	defer txn.Rollback()

	keys, err := c.scanKeys(txn, table, nil)
	if err != nil {
		c.logger.Error("failed to scan table", "table", table.String(), "error", err)
		return nil
	}

	var nodes []rdf.Term
	var previous encoding.EncodedTerm
	for i, key := range keys {
		var first encoding.EncodedTerm
		copy(first[:], key[:encoding.EncodedTermSize])
		if i > 0 && first == previous {
			continue
		}
		previous = first
		term, err := c.term(txn, first, nil)
		if err != nil {
			c.logger.Error("failed to decode term", "error", err)
			return nil
		}
		nodes = append(nodes, term)
	}
	return nodes
}

func (c *KVCollection) scanKeys(txn storage.Transaction, table storage.Table, prefix []byte) ([][]byte, error) {
	it, err := txn.Scan(table, prefix)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var keys [][]byte
	for it.Next() {
		keys = append(keys, it.Key())
	}
	return keys, nil
}

func (c *KVCollection) decodeTriple(txn storage.Transaction, table storage.Table, key []byte, cache map[encoding.EncodedTerm]rdf.Term) (*rdf.Triple, error) {
	parts, err := encoding.SplitTripleKey(key)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid triple key with %d terms", len(parts))
	}

	var decoded [3]rdf.Term
	for i, part := range parts {
		if decoded[i], err = c.term(txn, part, cache); err != nil {
			return nil, err
		}
	}

	switch table {
	case storage.TablePOS:
		return rdf.NewTriple(decoded[2], decoded[0], decoded[1]), nil
	case storage.TableOSP:
		return rdf.NewTriple(decoded[1], decoded[2], decoded[0]), nil
	default:
		return rdf.NewTriple(decoded[0], decoded[1], decoded[2]), nil
	}
}

func (c *KVCollection) term(txn storage.Transaction, enc encoding.EncodedTerm, cache map[encoding.EncodedTerm]rdf.Term) (rdf.Term, error) {
	if term, ok := cache[enc]; ok {
		return term, nil
	}
	payload, err := txn.Get(storage.TableID2Term, enc[:])
	if err != nil {
		return nil, fmt.Errorf("term lookup: %w", err)
	}
	term, err := c.decoder.DecodeTerm(payload)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache[enc] = term
	}
	return term, nil
}
