package smtpd

import "crypto/tls"

// LoadTLSCertificate reads a PEM certificate/key pair from disk and
// returns a *tls.Config ready to hand to smtp.CodecConfig.TLSConfig. It
// is the concrete, crypto/tls-backed provider; the core package never
// imports crypto/tls for anything beyond the type of this field, keeping
// certificate sourcing entirely a daemon concern as intended by the
// pluggable Tls component.
func LoadTLSCertificate(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
