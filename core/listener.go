package core

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"syscall"

	"golang.org/x/net/netutil"
	"golang.org/x/sys/unix"
)

// listen binds a TCP listener with SO_REUSEPORT set, so every worker can
// bind the same address and the kernel balances accepts across them. A
// non-nil TLS config wraps the listener; maxConns > 0 caps concurrent
// connections.
func listen(host string, port int, tlsConfig *tls.Config, maxConns int) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var optErr error
			err := c.Control(func(fd uintptr) {
				optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if optErr != nil {
					return
				}
				optErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return optErr
		},
	}

	ln, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, err
	}

	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}
	return ln, nil
}

// loadTLSConfig builds a TLS config from the certificate chain and private
// key paths. A passphrase decrypts legacy encrypted PEM keys.
func loadTLSConfig(chainPath, keyPath, password string) (*tls.Config, error) {
	if chainPath == "" {
		return nil, fmt.Errorf("core: private key configured without a certificate chain")
	}

	certPEM, err := os.ReadFile(chainPath)
	if err != nil {
		return nil, fmt.Errorf("core: read certificate chain: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("core: read private key: %w", err)
	}

	if password != "" {
		keyPEM, err = decryptKeyPEM(keyPEM, password)
		if err != nil {
			return nil, err
		}
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("core: load key pair: %w", err)
	}

	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
}

func decryptKeyPEM(keyPEM []byte, password string) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("core: private key is not PEM encoded")
	}
	//nolint:staticcheck // PEM passphrase decryption is what the config knob promises.
	if !x509.IsEncryptedPEMBlock(block) {
		return keyPEM, nil
	}
	//nolint:staticcheck
	der, err := x509.DecryptPEMBlock(block, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("core: decrypt private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}
