// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
)

// TLSConfig holds TLS material for outgoing connections. Keystore and
// truststore files are PEM bundles: the keystore carries the client
// certificate and key (mutual TLS), the truststore carries trusted CAs.
type TLSConfig struct {
	InsecureSkipVerify bool
	KeystorePath       string
	TruststorePath     string
}

// ConfigureTLS creates an http.Transport from the given TLS configuration.
// A nil config yields a transport with library defaults.
func ConfigureTLS(config *TLSConfig) (*http.Transport, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{},
	}
	if config == nil {
		return transport, nil
	}

	if config.TruststorePath != "" {
		caCert, err := os.ReadFile(config.TruststorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read truststore from %s: %w", config.TruststorePath, err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificates from %s", config.TruststorePath)
		}

		transport.TLSClientConfig.RootCAs = caCertPool
	}

	if config.KeystorePath != "" {
		// The PEM bundle holds both the certificate chain and the key.
		keyPEM, err := os.ReadFile(config.KeystorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read keystore from %s: %w", config.KeystorePath, err)
		}

		cert, err := tls.X509KeyPair(keyPEM, keyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client certificate from %s: %w", config.KeystorePath, err)
		}

		transport.TLSClientConfig.Certificates = []tls.Certificate{cert}
	}

	if config.InsecureSkipVerify {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	return transport, nil
}
