package verify

import (
	"fmt"
	"os"

	"github.com/jedisct1/go-minisign"
)

// VerifyMinisign checks sigPath against the file at path using the public
// key in pubKeyPath.
func VerifyMinisign(path, sigPath, pubKeyPath string) error {
	pubKey, err := minisign.NewPublicKeyFromFile(pubKeyPath)
	if err != nil {
		return fmt.Errorf("read minisign pubkey: %w", err)
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return fmt.Errorf("read minisign signature: %w", err)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- archive path chosen by the user
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	valid, err := pubKey.Verify(data, sig)
	if err != nil {
		return fmt.Errorf("minisign: verification error: %w", err)
	}
	if !valid {
		return fmt.Errorf("minisign: signature verification failed")
	}
	return nil
}
