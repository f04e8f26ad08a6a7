// Package wallet loads the payer key and signs EIP-2612 permits with it.
package wallet

import (
	"bufio"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/term"
)

// ErrNoKeySource is returned by Load when no source yields a key.
var ErrNoKeySource = errors.New("no private key source provided (use --keystore, X402_PRIVATE_KEY, PRIVATE_KEY env, or pipe to stdin)")

// Source lists the places a private key may come from.
// Load tries them in order: keystore, hex, PRIVATE_KEY env, stdin.
type Source struct {
	Keystore string
	// Password for the keystore; prompted on the terminal when empty.
	Password string
	Hex      string
	// Stdin is read for a hex key when set and nothing else matched.
	Stdin io.Reader
}

// Load resolves a private key from src.
func Load(src Source) (*ecdsa.PrivateKey, error) {
	if src.Keystore != "" {
		password := src.Password
		if password == "" {
			var err error
			if password, err = PromptPassword("Enter keystore password: "); err != nil {
				return nil, fmt.Errorf("failed to read password: %w", err)
			}
		}
		return LoadFromKeystore(src.Keystore, password)
	}

	if src.Hex != "" {
		return LoadFromHex(src.Hex)
	}

	if envKey := os.Getenv("PRIVATE_KEY"); envKey != "" {
		return LoadFromHex(envKey)
	}

	if src.Stdin != nil {
		return LoadFromReader(src.Stdin)
	}

	return nil, ErrNoKeySource
}

// LoadFromKeystore decrypts a Web3 Secret Storage keystore file.
func LoadFromKeystore(path, password string) (*ecdsa.PrivateKey, error) {
	keystoreJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore file: %w", err)
	}

	key, err := keystore.DecryptKey(keystoreJSON, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore (wrong password?): %w", err)
	}
	return key.PrivateKey, nil
}

// LoadFromHex parses a hex private key with or without the 0x prefix.
func LoadFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimSpace(hexKey)
	hexKey = strings.TrimPrefix(hexKey, "0x")

	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex private key: %w", err)
	}

	privateKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return privateKey, nil
}

// LoadFromReader reads a hex key from the first line of r.
func LoadFromReader(r io.Reader) (*ecdsa.PrivateKey, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read private key from stdin: %w", err)
		}
		return nil, errors.New("no private key piped to stdin")
	}
	return LoadFromHex(scanner.Text())
}

// PipedStdin returns os.Stdin when it is not a terminal, nil otherwise.
func PipedStdin() io.Reader {
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return nil
	}
	return os.Stdin
}

// PromptPassword prompts for a password without echoing to terminal.
func PromptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}

// EncodeHex returns the 0x-prefixed hex encoding of the key.
func EncodeHex(privateKey *ecdsa.PrivateKey) string {
	return hexutil.Encode(crypto.FromECDSA(privateKey))
}

// GetAddress returns the Ethereum address for a private key.
func GetAddress(privateKey *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(privateKey.PublicKey).Hex()
}
