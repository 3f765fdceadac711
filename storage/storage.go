// Package storage persists shielded-pool state in a prefixed key-value store.
// Each pool writes four fixed binary records under its own prefix:
//   - 't' for the commitment accumulator
//   - 'n' for the nullifier registry
//   - 'l' for the value ledger
//   - 'p' for the controller scalars and root window
//
// A save is a single write transaction, so a failed save leaves the database
// unchanged.
package storage

import (
	"errors"
	"fmt"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/vocdoni/shielded-pool/pool"
	"github.com/vocdoni/shielded-pool/types"
)

// ErrNotFound is returned by Load when no state is stored for the pool.
var ErrNotFound = fmt.Errorf("pool state not found")

var (
	treeKey       = []byte("t")
	nullifierKey  = []byte("n")
	ledgerKey     = []byte("l")
	controllerKey = []byte("p")
)

func poolPrefix(poolID types.Account) []byte {
	return append([]byte("pool/"), poolID[:]...)
}

// Save writes a snapshot of the pool under its PoolID prefix, atomically.
// The four records are captured under one pool lock, so a concurrent
// operation cannot leave a torn snapshot on disk.
func Save(database db.Database, p *pool.Pool) error {
	treeRec, nullifierRec, ledgerRec, controllerRec, err := p.Snapshot()
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(database.WriteTx(), poolPrefix(p.Config().PoolID))
	for _, kv := range []struct {
		key   []byte
		value []byte
	}{
		{treeKey, treeRec},
		{nullifierKey, nullifierRec},
		{ledgerKey, ledgerRec},
		{controllerKey, controllerRec},
	} {
		if err := wTx.Set(kv.key, kv.value); err != nil {
			wTx.Discard()
			return err
		}
	}
	return wTx.Commit()
}

// Load rebuilds a pool from the records stored under cfg.PoolID. The
// configuration and capabilities are provided by the caller, as in pool.New.
func Load(database db.Database, cfg pool.Config, verifier pool.Verifier,
	vlt pool.Vault, mint pool.TwinMint, hook pool.Hook) (*pool.Pool, error) {
	rd := prefixeddb.NewPrefixedReader(database, poolPrefix(cfg.PoolID))
	records := make([][]byte, 4)
	for i, key := range [][]byte{treeKey, nullifierKey, ledgerKey, controllerKey} {
		data, err := rd.Get(key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, cfg.PoolID.Hex())
			}
			return nil, err
		}
		records[i] = data
	}
	return pool.Restore(cfg, verifier, vlt, mint, hook,
		records[0], records[1], records[2], records[3])
}
