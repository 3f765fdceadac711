// Command shieldedpool runs a local end-to-end simulation of a shielded pool:
// it registers an origin asset, shields public value into notes, performs a
// private transfer, unshields back to the origin and to the twin asset, and
// persists the resulting state. Proof verification is stubbed out, so the run
// exercises the accounting and conservation machinery, not the circuits.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/shielded-pool/governance"
	"github.com/vocdoni/shielded-pool/pool"
	"github.com/vocdoni/shielded-pool/storage"
	"github.com/vocdoni/shielded-pool/types"
	"github.com/vocdoni/shielded-pool/util"
	"github.com/vocdoni/shielded-pool/vault"
)

// devVerifier accepts every proof. Simulation only.
type devVerifier struct{}

func (devVerifier) Verify(keyID string, _ []byte, inputs []types.Hash32) error {
	log.Debugw("proof accepted (dev verifier)", "key", keyID, "publicInputs", len(inputs))
	return nil
}

func randomAccount() types.Account {
	return types.Account(util.Random32())
}

func main() {
	dataDir := flag.String("dataDir", "", "directory for the state database (empty for a temporary one)")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	feeBps := flag.Uint("feeBps", types.FeeBpsDefault, "protocol fee in basis points")
	amount := flag.Uint64("amount", 10_000, "amount to shield")
	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	if *dataDir == "" {
		dir, err := os.MkdirTemp("", "shieldedpool")
		if err != nil {
			log.Fatal(err)
		}
		*dataDir = dir
	}
	database, err := metadb.New(db.TypePebble, *dataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	admin := randomAccount()
	originAsset := randomAccount()
	twinAsset := randomAccount()
	poolID := randomAccount()
	alice := randomAccount()

	registry := governance.New(admin)
	if err := registry.RegisterAsset(admin, originAsset, twinAsset, 9,
		uint16(*feeBps), types.FeaturePrivateTransfer); err != nil {
		log.Fatal(err)
	}
	mapping, err := registry.Lookup(originAsset)
	if err != nil {
		log.Fatal(err)
	}

	vlt := vault.New(originAsset, poolID)
	mint := vault.NewMint(mapping.TwinMint)
	p, err := pool.New(pool.Config{
		OriginAsset: originAsset,
		PoolID:      poolID,
		Authority:   poolID,
		FeeBps:      mapping.FeeBps,
		Features:    mapping.Features,
		Twin:        pool.TwinEnabled(mapping.TwinMint),
	}, devVerifier{}, vlt, mint, nil)
	if err != nil {
		log.Fatal(err)
	}

	shieldRcpt, err := p.Shield(pool.ShieldRequest{
		Amount:          *amount,
		Commitment:      randomAccount(),
		ValueCommitment: randomAccount(),
		Depositor:       alice,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("shielded", "noteValue", shieldRcpt.NoteValue, "fee", shieldRcpt.FeeCharged)

	transferRcpt, err := p.PrivateTransfer(pool.TransferRequest{
		Nullifiers:             []types.Hash32{randomAccount()},
		OutputCommitments:      []types.Hash32{randomAccount(), randomAccount()},
		OutputValueCommitments: []types.Hash32{randomAccount(), randomAccount()},
		OldRoot:                p.Root(),
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("transferred", "outputs", len(transferRcpt.LeafIndices))

	originRcpt, err := p.UnshieldToOrigin(pool.UnshieldRequest{
		Amount:      shieldRcpt.NoteValue / 2,
		Nullifiers:  []types.Hash32{randomAccount()},
		OldRoot:     p.Root(),
		Destination: alice,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("unshielded to origin",
		"released", originRcpt.AmountReleased, "fee", originRcpt.FeeCharged)

	twinRcpt, err := p.UnshieldToTwin(pool.UnshieldRequest{
		Amount:      shieldRcpt.NoteValue / 4,
		Nullifiers:  []types.Hash32{randomAccount()},
		OldRoot:     p.Root(),
		Destination: alice,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("unshielded to twin", "minted", twinRcpt.AmountReleased)

	if err := storage.Save(database, p); err != nil {
		log.Fatal(err)
	}
	l := p.Ledger()
	fmt.Printf("pool %s\n", poolID.Hex())
	fmt.Printf("  root:          %s\n", p.Root().Hex())
	fmt.Printf("  live value:    %d\n", l.LiveValue())
	fmt.Printf("  protocol fees: %d\n", p.ProtocolFees())
	fmt.Printf("  vault balance: %d\n", vlt.Balance())
	fmt.Printf("  twin supply:   %d\n", mint.Supply())
	fmt.Printf("  state dir:     %s\n", *dataDir)
}
