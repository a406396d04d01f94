package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/hdkey/hdkey"
	"github.com/lightningnetwork/hdkey/keychain"
	"github.com/urfave/cli"
)

var errMissingArg = errors.New("missing argument")

// keyInfo is the JSON representation of an extended key and its metadata.
type keyInfo struct {
	Key               string `json:"key"`
	ExtendedPubKey    string `json:"xpub"`
	Network           string `json:"network"`
	Private           bool   `json:"private"`
	Depth             uint8  `json:"depth"`
	ChildIndex        uint32 `json:"child_index"`
	Hardened          bool   `json:"hardened"`
	Fingerprint       string `json:"fingerprint"`
	ParentFingerprint string `json:"parent_fingerprint"`
	ChainCode         string `json:"chain_code"`
	PubKey            string `json:"pub_key"`
	Path              string `json:"path,omitempty"`
}

func newKeyInfo(key *hdkey.ExtendedKey) *keyInfo {
	fingerprint := key.Fingerprint()
	parentFP := key.ParentFingerprint()

	return &keyInfo{
		Key:               key.String(),
		ExtendedPubKey:    key.Neuter().String(),
		Network:           key.Network().String(),
		Private:           key.IsPrivate(),
		Depth:             key.Depth(),
		ChildIndex:        key.ChildIndex(),
		Hardened:          key.IsHardened(),
		Fingerprint:       hex.EncodeToString(fingerprint[:]),
		ParentFingerprint: hex.EncodeToString(parentFP[:]),
		ChainCode:         hex.EncodeToString(key.ChainCode()),
		PubKey:            hex.EncodeToString(key.PubKeyBytes()),
	}
}

func printJSON(ctx *cli.Context, resp interface{}) error {
	b, err := json.MarshalIndent(resp, "", "    ")
	if err != nil {
		return fmt.Errorf("unable to encode response: %w", err)
	}

	_, err = fmt.Fprintf(ctx.App.Writer, "%s\n", b)
	return err
}

// keyArg parses the extended key passed as the named flag or, if the flag is
// not set, as the first positional argument.
func keyArg(ctx *cli.Context, name string) (*hdkey.ExtendedKey, cli.Args,
	error) {

	args := ctx.Args()

	var keyStr string
	switch {
	case ctx.IsSet(name):
		keyStr = ctx.String(name)
	case args.Present():
		keyStr = args.First()
		args = args.Tail()
	default:
		return nil, nil, fmt.Errorf("%w: %s", errMissingArg, name)
	}

	key, err := hdkey.NewKeyFromString(keyStr)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to parse %s: %w", name, err)
	}

	return key, args, nil
}

// seedFromFlags returns the seed given either as hex or as a mnemonic.
func seedFromFlags(ctx *cli.Context) ([]byte, error) {
	switch {
	case ctx.IsSet("seed") && ctx.IsSet("mnemonic"):
		return nil, errors.New("seed and mnemonic are mutually " +
			"exclusive")

	case ctx.IsSet("seed"):
		seed, err := hex.DecodeString(ctx.String("seed"))
		if err != nil {
			return nil, fmt.Errorf("unable to decode seed: %w", err)
		}

		return seed, nil

	case ctx.IsSet("mnemonic"):
		return hdkey.SeedFromMnemonic(
			ctx.String("mnemonic"), ctx.String("passphrase"),
		)

	default:
		return nil, fmt.Errorf("%w: seed or mnemonic", errMissingArg)
	}
}

var seedFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "seed",
		Usage: "the hex encoded seed of the master key",
	},
	cli.StringFlag{
		Name:  "mnemonic",
		Usage: "a BIP-39 mnemonic to derive the seed from",
	},
	cli.StringFlag{
		Name:  "passphrase",
		Usage: "the optional BIP-39 passphrase of the mnemonic",
	},
}

var newSeedCommand = cli.Command{
	Name:  "newseed",
	Usage: "Generate a new random seed.",
	Flags: []cli.Flag{
		cli.UintFlag{
			Name:  "len",
			Usage: "the length of the seed in bytes (16 to 64)",
			Value: hdkey.RecommendedSeedLen,
		},
	},
	Action: newSeed,
}

func newSeed(ctx *cli.Context) error {
	length := ctx.Uint("len")
	if length > hdkey.MaxSeedBytes {
		return hdkey.ErrInvalidSeedLen
	}

	seed, err := hdkey.GenerateSeed(uint8(length))
	if err != nil {
		return err
	}

	return printJSON(ctx, struct {
		Seed string `json:"seed"`
	}{
		Seed: hex.EncodeToString(seed),
	})
}

var newMnemonicCommand = cli.Command{
	Name:  "newmnemonic",
	Usage: "Generate a new BIP-39 mnemonic.",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name: "bits",
			Usage: "the bits of entropy encoded by the mnemonic, " +
				"a multiple of 32 from 128 to 256",
			Value: 256,
		},
	},
	Action: newMnemonic,
}

func newMnemonic(ctx *cli.Context) error {
	mnemonic, err := hdkey.NewMnemonic(ctx.Int("bits"))
	if err != nil {
		return err
	}

	return printJSON(ctx, struct {
		Mnemonic string `json:"mnemonic"`
	}{
		Mnemonic: mnemonic,
	})
}

var masterCommand = cli.Command{
	Name:  "master",
	Usage: "Create the master key of a seed.",
	Description: `
	Create the master extended key of a hex encoded seed or of a BIP-39
	mnemonic. The key is encoded for the network set with --network.`,
	Flags:  seedFlags,
	Action: master,
}

func master(ctx *cli.Context) error {
	seed, err := seedFromFlags(ctx)
	if err != nil {
		return err
	}

	key := hdkey.NewMaster(seed, cfg.Net())
	log.Debugf("Created master key %x", key.Fingerprint())

	info := newKeyInfo(key)
	info.Path = hdkey.Path{}.String()

	return printJSON(ctx, info)
}

var deriveCommand = cli.Command{
	Name:      "derive",
	Usage:     "Derive a key from a master key along a path.",
	ArgsUsage: "key path",
	Description: `
	Derive the key at the given path, e.g. m/44'/0'/0'/0/1, from a master
	key. Private master keys derive private children, public master keys
	derive public children and can't follow hardened steps.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "key",
			Usage: "the serialized master key",
		},
		cli.StringFlag{
			Name:  "path",
			Usage: "the derivation path",
		},
		cli.BoolFlag{
			Name:  "neuter",
			Usage: "output the public key of the result",
		},
	},
	Action: derive,
}

func derive(ctx *cli.Context) error {
	key, args, err := keyArg(ctx, "key")
	if err != nil {
		return err
	}

	var pathStr string
	switch {
	case ctx.IsSet("path"):
		pathStr = ctx.String("path")
	case args.Present():
		pathStr = args.First()
	default:
		return fmt.Errorf("%w: path", errMissingArg)
	}

	path, err := hdkey.ParsePath(pathStr)
	if err != nil {
		return err
	}

	derived, err := key.DeriveIndices(path)
	if err != nil {
		return err
	}

	if ctx.Bool("neuter") {
		derived = derived.Neuter()
	}

	info := newKeyInfo(derived)
	info.Path = path.String()

	log.Debugf("Derived %v: %v", path, spewClosure(info))

	return printJSON(ctx, info)
}

var childCommand = cli.Command{
	Name:      "child",
	Usage:     "Derive a single child of a key.",
	ArgsUsage: "key index",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "key",
			Usage: "the serialized parent key",
		},
		cli.BoolFlag{
			Name:  "hardened",
			Usage: "derive the hardened child of the index",
		},
	},
	Action: child,
}

func child(ctx *cli.Context) error {
	key, args, err := keyArg(ctx, "key")
	if err != nil {
		return err
	}

	if !args.Present() {
		return fmt.Errorf("%w: index", errMissingArg)
	}

	index, err := strconv.ParseUint(args.First(), 10, 32)
	if err != nil {
		return fmt.Errorf("unable to parse index: %w", err)
	}

	i := uint32(index)
	if ctx.Bool("hardened") {
		if hdkey.IsHardened(i) {
			return fmt.Errorf("index %d is already hardened", i)
		}
		i = hdkey.HardenedIndex(i)
	}

	childKey, err := key.Child(i)
	if err != nil {
		return err
	}

	return printJSON(ctx, newKeyInfo(childKey))
}

var neuterCommand = cli.Command{
	Name:      "neuter",
	Usage:     "Convert a private extended key to its public key.",
	ArgsUsage: "key",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "key",
			Usage: "the serialized extended key",
		},
	},
	Action: neuter,
}

func neuter(ctx *cli.Context) error {
	key, _, err := keyArg(ctx, "key")
	if err != nil {
		return err
	}

	return printJSON(ctx, newKeyInfo(key.Neuter()))
}

var inspectCommand = cli.Command{
	Name:      "inspect",
	Usage:     "Decode a serialized extended key.",
	ArgsUsage: "key",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "key",
			Usage: "the serialized extended key",
		},
		cli.StringFlag{
			Name:  "to_network",
			Usage: "re-encode the key for another network",
		},
	},
	Action: inspect,
}

func inspect(ctx *cli.Context) error {
	key, _, err := keyArg(ctx, "key")
	if err != nil {
		return err
	}

	if ctx.IsSet("to_network") {
		net, err := hdkey.ParseNetwork(ctx.String("to_network"))
		if err != nil {
			return err
		}
		key = key.WithNetwork(net)
	}

	return printJSON(ctx, newKeyInfo(key))
}

// accountResp is the JSON representation of a key derived by the key ring.
type accountResp struct {
	Scope       string `json:"scope"`
	AccountXPub string `json:"account_xpub"`
	Locator     string `json:"key_locator"`
	Path        string `json:"path"`
	PubKey      string `json:"pub_key"`
	Signature   string `json:"signature,omitempty"`
	SharedKey   string `json:"shared_key,omitempty"`
}

var accountCommand = cli.Command{
	Name:  "account",
	Usage: "Derive a key of a key family with the key ring.",
	Description: `
	Derive the key m/purpose'/coin'/family'/branch/index with the key ring
	of a master key. The purpose and coin type are taken from the config.
	The key can optionally sign a message or perform ECDH with a remote
	public key.`,
	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  "key",
			Usage: "the serialized private master key",
		},
		cli.Uint64Flag{
			Name:  "family",
			Usage: "the key family (account) of the key",
		},
		cli.Uint64Flag{
			Name:  "branch",
			Usage: "the branch of the key, 0 external or 1 internal",
		},
		cli.Uint64Flag{
			Name:  "index",
			Usage: "the index of the key in the branch",
		},
		cli.StringFlag{
			Name:  "msg",
			Usage: "a message to sign with the key",
		},
		cli.StringFlag{
			Name: "sigtype",
			Usage: "the signature to create: ecdsa, compact or " +
				"schnorr",
			Value: "ecdsa",
		},
		cli.BoolFlag{
			Name:  "double_hash",
			Usage: "hash the message twice before signing",
		},
		cli.StringFlag{
			Name:  "ecdh",
			Usage: "a hex encoded remote public key to run ECDH with",
		},
	}, seedFlags...),
	Action: account,
}

// rootKey returns the master key given as a serialized key or as a seed.
func rootKey(ctx *cli.Context) (*hdkey.ExtendedKey, error) {
	if ctx.IsSet("key") {
		key, _, err := keyArg(ctx, "key")
		return key, err
	}

	seed, err := seedFromFlags(ctx)
	if err != nil {
		return nil, err
	}

	return hdkey.NewMaster(seed, cfg.Net()), nil
}

func account(ctx *cli.Context) error {
	root, err := rootKey(ctx)
	if err != nil {
		return err
	}

	scope := cfg.KeyScope()
	keyRing, err := keychain.NewHDKeyRing(root, scope)
	if err != nil {
		return err
	}

	for _, name := range []string{"family", "branch", "index"} {
		if ctx.Uint64(name) >= uint64(hdkey.HardenedKeyStart) {
			return fmt.Errorf("%s %d out of range", name,
				ctx.Uint64(name))
		}
	}

	keyLoc := keychain.KeyLocator{
		Family: keychain.KeyFamily(ctx.Uint64("family")),
		Branch: keychain.Branch(ctx.Uint64("branch")),
		Index:  uint32(ctx.Uint64("index")),
	}

	xpub, err := keyRing.AccountXPub(keyLoc.Family)
	if err != nil {
		return err
	}

	keyDesc, err := keyRing.DeriveKey(keyLoc)
	if err != nil {
		return err
	}

	resp := &accountResp{
		Scope:       scope.String(),
		AccountXPub: xpub.String(),
		Locator:     keyLoc.String(),
		Path:        keyLoc.Path(scope).String(),
		PubKey: hex.EncodeToString(
			keyDesc.PubKey.SerializeCompressed(),
		),
	}

	if ctx.IsSet("msg") {
		sig, err := signMessage(
			keyRing, keyLoc, []byte(ctx.String("msg")),
			ctx.String("sigtype"), ctx.Bool("double_hash"),
		)
		if err != nil {
			return err
		}
		resp.Signature = hex.EncodeToString(sig)
	}

	if ctx.IsSet("ecdh") {
		pubBytes, err := hex.DecodeString(ctx.String("ecdh"))
		if err != nil {
			return fmt.Errorf("unable to decode remote key: %w", err)
		}
		remote, err := btcec.ParsePubKey(pubBytes)
		if err != nil {
			return fmt.Errorf("unable to parse remote key: %w", err)
		}

		shared, err := keyRing.ECDH(keyDesc, remote)
		if err != nil {
			return err
		}
		resp.SharedKey = hex.EncodeToString(shared[:])
	}

	return printJSON(ctx, resp)
}

// signMessage signs msg with the key at keyLoc and returns the serialized
// signature of the requested type.
func signMessage(signer keychain.MessageSignerRing, keyLoc keychain.KeyLocator,
	msg []byte, sigType string, doubleHash bool) ([]byte, error) {

	switch sigType {
	case "ecdsa":
		sig, err := signer.SignMessage(keyLoc, msg, doubleHash)
		if err != nil {
			return nil, err
		}

		return sig.Serialize(), nil

	case "compact":
		return signer.SignMessageCompact(keyLoc, msg, doubleHash)

	case "schnorr":
		sig, err := signer.SignMessageSchnorr(
			keyLoc, msg, doubleHash, nil, nil,
		)
		if err != nil {
			return nil, err
		}

		return sig.Serialize(), nil

	default:
		return nil, fmt.Errorf("unknown signature type %q", sigType)
	}
}
