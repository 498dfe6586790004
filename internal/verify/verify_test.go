package verify

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/3leaps/mingwup/internal/model"
)

func TestExtractChecksum(t *testing.T) {
	t.Parallel()

	sha256Digest := strings.Repeat("a", 64)
	sha512Digest := strings.Repeat("b", 128)

	tests := []struct {
		name      string
		data      string
		algo      string
		assetName string
		want      string
		wantErr   string
	}{
		{
			name:    "empty file",
			data:    "\n\n",
			algo:    "sha256",
			wantErr: "empty",
		},
		{
			name: "bare digest",
			data: strings.ToUpper(sha256Digest),
			algo: "sha256",
			want: sha256Digest,
		},
		{
			name:      "consolidated matches by basename",
			data:      sha256Digest + "  ./dist/gcc.7z\n" + sha256Digest + "  other\n",
			algo:      "sha256",
			assetName: "gcc.7z",
			want:      sha256Digest,
		},
		{
			name:      "binary mode marker",
			data:      sha256Digest + " *gcc.7z\n",
			algo:      "sha256",
			assetName: "gcc.7z",
			want:      sha256Digest,
		},
		{
			name:      "ignores comments and blank lines",
			data:      "# comment\n\n" + sha256Digest + " gcc.7z\n",
			algo:      "sha256",
			assetName: "gcc.7z",
			want:      sha256Digest,
		},
		{
			name:      "asset not found",
			data:      sha256Digest + " gcc.7z\n",
			algo:      "sha256",
			assetName: "nope",
			wantErr:   "not found",
		},
		{
			name:      "sha512 digest",
			data:      sha512Digest + " gcc.7z\n",
			algo:      "sha512",
			assetName: "gcc.7z",
			want:      sha512Digest,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractChecksum([]byte(tc.data), tc.algo, tc.assetName)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tc.wantErr)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("error: got %q want substring %q", err.Error(), tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractChecksum: %v", err)
			}
			if got != tc.want {
				t.Fatalf("checksum: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	if got := AlgorithmFromName("gcc.7z.sha512", "sha256"); got != "sha512" {
		t.Fatalf("AlgorithmFromName: got %q", got)
	}
	if got := AlgorithmFromName("gcc.7z.txt", "sha256"); got != "sha256" {
		t.Fatalf("AlgorithmFromName default: got %q", got)
	}
	if got := FormatSize(1536); got != "1.5 KB" {
		t.Fatalf("FormatSize: got %q", got)
	}
	if got := FormatSize(12); got != "12 B" {
		t.Fatalf("FormatSize: got %q", got)
	}
}

func writeArchive(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x86_64-13.2.0-release-posix-seh-ucrt-rt_v11-rev1.7z")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// signMinisign writes a legacy (non-prehashed) minisign key pair and a
// signature of data, returning the public key path.
func signMinisign(t *testing.T, data []byte, sigPath string) string {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyID := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	pubBin := append([]byte("Ed"), keyID...)
	pubBin = append(pubBin, pub...)
	pubPath := filepath.Join(t.TempDir(), "mingwup.pub")
	pubText := "untrusted comment: test key\n" + base64.StdEncoding.EncodeToString(pubBin) + "\n"
	if err := os.WriteFile(pubPath, []byte(pubText), 0o644); err != nil {
		t.Fatalf("write pubkey: %v", err)
	}

	sig := ed25519.Sign(priv, data)
	trusted := "timestamp:0"
	global := ed25519.Sign(priv, append(append([]byte{}, sig...), trusted...))
	sigBin := append([]byte("Ed"), keyID...)
	sigBin = append(sigBin, sig...)
	sigText := "untrusted comment: signature\n" +
		base64.StdEncoding.EncodeToString(sigBin) + "\n" +
		"trusted comment: " + trusted + "\n" +
		base64.StdEncoding.EncodeToString(global) + "\n"
	if err := os.WriteFile(sigPath, []byte(sigText), 0o644); err != nil {
		t.Fatalf("write signature: %v", err)
	}
	return pubPath
}

func TestVerifierChecksumSidecar(t *testing.T) {
	t.Parallel()

	path := writeArchive(t, "payload")

	res, err := Verifier{}.Verify(path)
	if err != nil {
		t.Fatalf("no sidecars: %v", err)
	}
	if res.String() != "no sidecars" {
		t.Fatalf("result: got %q", res.String())
	}

	if err := os.WriteFile(path+".sha256", []byte(sha256Hex("payload")+"  "+filepath.Base(path)+"\n"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	res, err = Verifier{}.Verify(path)
	if err != nil {
		t.Fatalf("matching checksum: %v", err)
	}
	if res.Algorithm != "sha256" || res.Digest != sha256Hex("payload") {
		t.Fatalf("result: got %+v", res)
	}

	if err := os.WriteFile(path+".sha256", []byte(sha256Hex("other")), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	_, err = Verifier{}.Verify(path)
	if !errors.Is(err, model.ErrFormat) {
		t.Fatalf("mismatch: got %v want format error", err)
	}
}

func TestVerifierSignature(t *testing.T) {
	t.Parallel()

	path := writeArchive(t, "signed payload")
	pubPath := signMinisign(t, []byte("signed payload"), path+".minisig")

	res, err := Verifier{PublicKeyPath: pubPath, RequireSignature: true}.Verify(path)
	if err != nil {
		t.Fatalf("valid signature: %v", err)
	}
	if !res.Signed {
		t.Fatalf("expected signed result")
	}

	if err := os.WriteFile(path, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	_, err = Verifier{PublicKeyPath: pubPath}.Verify(path)
	if !errors.Is(err, model.ErrFormat) {
		t.Fatalf("tampered: got %v want format error", err)
	}
}

func TestVerifierRequireSignature(t *testing.T) {
	t.Parallel()

	path := writeArchive(t, "payload")
	_, err := Verifier{RequireSignature: true}.Verify(path)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("missing signature: got %v want not_found", err)
	}

	if err := os.WriteFile(path+".minisig", []byte("junk"), 0o644); err != nil {
		t.Fatalf("write sig: %v", err)
	}
	_, err = Verifier{RequireSignature: true}.Verify(path)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("missing key: got %v want not_found", err)
	}
	if _, err := (Verifier{}).Verify(path); err != nil {
		t.Fatalf("unverifiable signature without key must be ignored: %v", err)
	}
}
