package nnue

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Networks bundles the value and policy evaluators loaded from a single
// weights file pair, the unit the search engine actually depends on.
type Networks struct {
	Value  *ValueNetwork
	Policy *PolicyNetwork
}

// LoadNetworks reads a value network from valuePath and a policy network
// from policyPath.
func LoadNetworks(valuePath, policyPath string) (*Networks, error) {
	value := NewValueNetwork()
	if err := loadFile(valuePath, value.Load); err != nil {
		return nil, fmt.Errorf("load value network: %w", err)
	}

	policy := NewPolicyNetwork()
	if err := loadFile(policyPath, policy.Load); err != nil {
		return nil, fmt.Errorf("load policy network: %w", err)
	}

	return &Networks{Value: value, Policy: policy}, nil
}

func loadFile(path string, load func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return load(f)
}

// WeightCache keeps the raw bytes of each weight file it loads in a
// BadgerDB blob store keyed by network kind and content hash. The stored
// bytes are the file's own layout, so every load still reads the file and
// parses a full weight payload, whether or not its hash is already cached.
type WeightCache struct {
	db *badger.DB
}

// OpenWeightCache opens (creating if necessary) a weight cache rooted at dir.
func OpenWeightCache(dir string) (*WeightCache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &WeightCache{db: db}, nil
}

// Close closes the underlying database.
func (c *WeightCache) Close() error {
	return c.db.Close()
}

// LoadValue loads a value network from path, serving a cached decode of the
// raw bytes when the file's content hash has been seen before.
func (c *WeightCache) LoadValue(path string) (*ValueNetwork, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	net := NewValueNetwork()
	if err := c.loadCached("value", raw, net.Load); err != nil {
		return nil, err
	}
	return net, nil
}

// LoadPolicy loads a policy network from path, serving a cached decode when
// possible.
func (c *WeightCache) LoadPolicy(path string) (*PolicyNetwork, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	net := NewPolicyNetwork()
	if err := c.loadCached("policy", raw, net.Load); err != nil {
		return nil, err
	}
	return net, nil
}

// loadCached looks raw's content hash up in the cache. On a hit it decodes
// the stored copy via load, which is byte-identical to raw; on a miss it
// decodes raw and then stores raw under that hash.
func (c *WeightCache) loadCached(kind string, raw []byte, load func(io.Reader) error) error {
	key := cacheKey(kind, raw)

	var cached []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			cached = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return err
	}

	if cached != nil {
		return load(bytes.NewReader(cached))
	}

	if err := load(bytes.NewReader(raw)); err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, raw)
	})
}

func cacheKey(kind string, raw []byte) []byte {
	sum := sha256.Sum256(raw)
	return append([]byte(kind+":"), sum[:]...)
}
