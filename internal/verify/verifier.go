// Package verify checks downloaded archives against optional checksum and
// signature sidecar files placed next to them.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/3leaps/mingwup/internal/model"
)

// Sidecar suffixes looked up next to an archive.
var (
	ChecksumSuffixes  = []string{".sha256", ".sha512"}
	SignatureSuffixes = []string{".minisig"}
)

// Verifier checks an archive's sidecars. The zero value only checks
// checksums that happen to be present.
type Verifier struct {
	// PublicKeyPath enables minisign verification.
	PublicKeyPath string
	// RequireSignature fails archives without a .minisig sidecar.
	RequireSignature bool
}

// Result records what was checked.
type Result struct {
	Algorithm string
	Digest    string
	Signed    bool
}

func (r Result) String() string {
	var parts []string
	if r.Digest != "" {
		parts = append(parts, fmt.Sprintf("%s %s", r.Algorithm, r.Digest))
	}
	if r.Signed {
		parts = append(parts, "minisign ok")
	}
	if len(parts) == 0 {
		return "no sidecars"
	}
	return strings.Join(parts, ", ")
}

// Verify checks the archive at path. A mismatch is a format error; a
// missing required signature or key is a not_found error.
func (v Verifier) Verify(path string) (Result, error) {
	var res Result
	name := filepath.Base(path)

	for _, suffix := range ChecksumSuffixes {
		sidecar := path + suffix
		data, err := os.ReadFile(sidecar) // #nosec G304 -- sidecar of a user-chosen archive
		if err != nil {
			continue
		}
		algo := AlgorithmFromName(sidecar, "sha256")
		want, err := ExtractChecksum(data, algo, name)
		if err != nil {
			return res, model.E(model.KindFormat, "read "+filepath.Base(sidecar), err)
		}
		got, err := FileDigest(path, algo)
		if err != nil {
			return res, model.E(model.KindFilesystem, "hash archive", err)
		}
		if got != want {
			return res, model.Errorf(model.KindFormat, "verify checksum", "%s mismatch for %s: got %s want %s", algo, name, got, want)
		}
		res.Algorithm, res.Digest = algo, got
		break
	}

	sigPath := ""
	for _, suffix := range SignatureSuffixes {
		if _, err := os.Stat(path + suffix); err == nil {
			sigPath = path + suffix
			break
		}
	}

	switch {
	case sigPath == "" && v.RequireSignature:
		return res, model.Errorf(model.KindNotFound, "verify signature", "no signature found for %s", name)
	case sigPath == "":
		return res, nil
	case v.PublicKeyPath == "":
		if v.RequireSignature {
			return res, model.Errorf(model.KindNotFound, "verify signature", "signature required but no public key configured")
		}
		return res, nil
	}

	if err := VerifyMinisign(path, sigPath, v.PublicKeyPath); err != nil {
		return res, model.E(model.KindFormat, "verify signature", err)
	}
	res.Signed = true
	return res, nil
}
