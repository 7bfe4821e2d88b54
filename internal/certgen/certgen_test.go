package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func parseCert(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("invalid certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}

func TestNewAuthority(t *testing.T) {
	ca, issued, err := NewAuthority("Rivone Test CA", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	if !ca.Cert.IsCA || !ca.Cert.BasicConstraintsValid {
		t.Error("CA certificate should have IsCA and BasicConstraintsValid")
	}
	if parsed := parseCert(t, issued.CertPEM); parsed.Subject.CommonName != "Rivone Test CA" {
		t.Errorf("CN = %q", parsed.Subject.CommonName)
	}
	if _, err := tls.X509KeyPair(issued.CertPEM, issued.KeyPEM); err != nil {
		t.Errorf("CA pair does not match: %v", err)
	}
}

func TestIssue(t *testing.T) {
	ca, _, err := NewAuthority("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	roots := x509.NewCertPool()
	roots.AddCert(ca.Cert)

	t.Run("server", func(t *testing.T) {
		issued, err := ca.Issue(Request{CommonName: "localhost", Hosts: []string{"localhost", "127.0.0.1"}, Server: true})
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		cert := parseCert(t, issued.CertPEM)
		if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
			t.Errorf("DNSNames = %v", cert.DNSNames)
		}
		if len(cert.IPAddresses) != 1 || cert.IPAddresses[0].String() != "127.0.0.1" {
			t.Errorf("IPAddresses = %v", cert.IPAddresses)
		}
		if _, err := cert.Verify(x509.VerifyOptions{Roots: roots, DNSName: "localhost", KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}}); err != nil {
			t.Errorf("server cert does not verify: %v", err)
		}
	})

	t.Run("listener", func(t *testing.T) {
		issued, err := ca.Issue(Request{CommonName: "alice"})
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		cert := parseCert(t, issued.CertPEM)
		if cert.Subject.CommonName != "alice" {
			t.Errorf("CN = %q", cert.Subject.CommonName)
		}
		if _, err := cert.Verify(x509.VerifyOptions{Roots: roots, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}}); err != nil {
			t.Errorf("client cert does not verify: %v", err)
		}
		if d := cert.NotAfter.Sub(cert.NotBefore); d < 364*24*time.Hour {
			t.Errorf("default validity too short: %v", d)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := ca.Issue(Request{}); err == nil {
			t.Error("expected error for empty common name")
		}
		if _, err := ca.Issue(Request{CommonName: "srv", Server: true}); err == nil {
			t.Error("expected error for server cert without hosts")
		}
	})
}

func TestWriteAndLoadAuthority(t *testing.T) {
	dir := t.TempDir()
	ca, issued, err := NewAuthority("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := issued.Write(dir, "ca"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "ca.key"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key mode = %v", info.Mode().Perm())
	}

	loaded, err := LoadAuthority(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		t.Fatalf("LoadAuthority: %v", err)
	}
	if !loaded.Cert.Equal(ca.Cert) {
		t.Error("loaded CA differs")
	}
	if _, err := loaded.Issue(Request{CommonName: "bob"}); err != nil {
		t.Errorf("loaded CA cannot sign: %v", err)
	}
}

func TestLoadAuthority_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.pem")
	if err := os.WriteFile(bad, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name       string
		cert, key  string
		wantSubstr string
	}{
		{"missing cert", filepath.Join(dir, "none.crt"), bad, "read ca cert"},
		{"missing key", bad, filepath.Join(dir, "none.key"), "read ca key"},
		{"invalid cert", bad, bad, "invalid CA cert PEM"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadAuthority(tc.cert, tc.key)
			if err == nil || !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("error = %v; want substring %q", err, tc.wantSubstr)
			}
		})
	}
}
