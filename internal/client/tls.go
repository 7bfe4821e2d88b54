package client

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// TLSFiles names the PEM files for talking to a TLS server. All are optional:
// CAFile pins the server CA, CertFile and KeyFile present a client
// certificate for cert auth mode.
type TLSFiles struct {
	CAFile   string
	CertFile string
	KeyFile  string
}

// NewHTTPClient builds the client used by APIClient. Without any TLS files
// it returns a plain client. timeout of zero leaves requests unbounded, which
// downloads need.
func NewHTTPClient(files TLSFiles, timeout time.Duration) (*http.Client, error) {
	if files.CAFile == "" && files.CertFile == "" && files.KeyFile == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if files.CertFile != "" || files.KeyFile != "" {
		if files.CertFile == "" || files.KeyFile == "" {
			return nil, errors.New("client cert and key must be given together")
		}
		cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert/key: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if files.CAFile != "" {
		caCert, err := os.ReadFile(files.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA cert")
		}
		cfg.RootCAs = caPool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = cfg
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
