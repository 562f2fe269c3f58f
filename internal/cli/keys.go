package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/ed25519"
	"github.com/LeJamon/goOCR2/internal/crypto/algorithms/secp256k1"
)

// Key types accepted by keys generate.
const (
	KeyTypeAccount = "ed25519"
	KeyTypeSigner  = "secp256k1"
)

var (
	keyType  string
	keyCount int
	keySeed  string
)

// GeneratedKey is one line of keys generate output.
type GeneratedKey struct {
	Type       string `json:"type"`
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Key management commands",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate account or report signing keys",
	Long: `Generate ed25519 account keys (transmitters, owners, payees) or secp256k1
report signing keys. With --seed the keys are derived deterministically from
the seed and the key index.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := GenerateKeys(keyType, keyCount, keySeed)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), keys)
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().StringVarP(&keyType, "type", "t", KeyTypeAccount, "key type: ed25519 or secp256k1")
	keysGenerateCmd.Flags().IntVarP(&keyCount, "count", "n", 1, "number of keys to generate")
	keysGenerateCmd.Flags().StringVar(&keySeed, "seed", "", "derive keys from this seed instead of the system random source")
}

// GenerateKeys creates count keys of the given type in parallel. Output
// order follows the key index.
func GenerateKeys(kind string, count int, seed string) ([]GeneratedKey, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	var gen func(i int) (GeneratedKey, error)
	switch kind {
	case KeyTypeAccount:
		gen = func(i int) (GeneratedKey, error) { return accountKey(seed, i) }
	case KeyTypeSigner:
		gen = func(i int) (GeneratedKey, error) { return signerKey(seed, i) }
	default:
		return nil, fmt.Errorf("unknown key type %q (must be %s or %s)", kind, KeyTypeAccount, KeyTypeSigner)
	}

	keys := make([]GeneratedKey, count)
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			k, err := gen(i)
			if err != nil {
				return fmt.Errorf("key %d: %w", i, err)
			}
			keys[i] = k
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

func seedMaterial(seed string, i int) []byte {
	return []byte(seed + "/" + strconv.Itoa(i))
}

func accountKey(seed string, i int) (GeneratedKey, error) {
	var (
		kp  *ed25519.KeyPair
		err error
	)
	if seed != "" {
		kp, err = ed25519.DeriveKeypair(seedMaterial(seed, i))
	} else {
		raw := make([]byte, 32)
		if _, err = rand.Read(raw); err != nil {
			return GeneratedKey{}, err
		}
		kp, err = ed25519.FromPrivateKey(raw)
	}
	if err != nil {
		return GeneratedKey{}, err
	}
	return GeneratedKey{
		Type:       KeyTypeAccount,
		Address:    kp.Address().String(),
		PrivateKey: hex.EncodeToString(kp.Seed()),
	}, nil
}

func signerKey(seed string, i int) (GeneratedKey, error) {
	var (
		k   *secp256k1.Key
		err error
	)
	if seed != "" {
		k, err = secp256k1.KeyFromSeed(seedMaterial(seed, i))
	} else {
		k, err = secp256k1.GenerateKey()
	}
	if err != nil {
		return GeneratedKey{}, err
	}
	return GeneratedKey{
		Type:       KeyTypeSigner,
		Address:    k.Address().String(),
		PrivateKey: hex.EncodeToString(k.Bytes()),
	}, nil
}
