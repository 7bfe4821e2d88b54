// Command certgen writes the certificates for running the server with TLS and
// the certificate access gate: a CA, a server certificate and one listener
// certificate per -client name. With -reuse-ca an existing CA in -out signs
// new listener certificates only.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/rivone/internal/certgen"
)

type options struct {
	out     string
	hosts   string
	clients string
	reuseCA bool
}

func main() {
	var o options
	flag.StringVar(&o.out, "out", "certs", "output directory")
	flag.StringVar(&o.hosts, "hosts", "localhost,127.0.0.1", "comma-separated server hosts")
	flag.StringVar(&o.clients, "client", "listener", "comma-separated listener names")
	flag.BoolVar(&o.reuseCA, "reuse-ca", false, "sign with the CA already in -out")
	flag.Parse()

	if err := run(o); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
	fmt.Printf("Certificates written to %s\n", o.out)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func run(o options) error {
	var ca *certgen.Authority
	if o.reuseCA {
		var err error
		ca, err = certgen.LoadAuthority(filepath.Join(o.out, "ca.crt"), filepath.Join(o.out, "ca.key"))
		if err != nil {
			return err
		}
	} else {
		var (
			caPair certgen.Issued
			err    error
		)
		ca, caPair, err = certgen.NewAuthority("Rivone CA", 10*365*24*time.Hour)
		if err != nil {
			return err
		}
		if err := caPair.Write(o.out, "ca"); err != nil {
			return err
		}

		hosts := splitList(o.hosts)
		if len(hosts) == 0 {
			return fmt.Errorf("at least one server host is required")
		}
		server, err := ca.Issue(certgen.Request{CommonName: hosts[0], Hosts: hosts, Server: true})
		if err != nil {
			return fmt.Errorf("server certificate: %w", err)
		}
		if err := server.Write(o.out, "server"); err != nil {
			return err
		}
	}

	for _, name := range splitList(o.clients) {
		pair, err := ca.Issue(certgen.Request{CommonName: name})
		if err != nil {
			return fmt.Errorf("certificate for %s: %w", name, err)
		}
		if err := pair.Write(o.out, name); err != nil {
			return err
		}
	}
	return nil
}
