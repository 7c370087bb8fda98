package tlsconfig

import "crypto/tls"

// ServerOptions is the subset of a TLSConfig relevant to building a
// *tls.Config for an accept-side listener: a certificate chain, a
// version profile (defaulting to ProfileSecure), and ALPN protocol
// preference (defaulting to http/1.1). There is no SNI-based certificate
// selection: the resulting *tls.Config serves the fixed Certificates list.
type ServerOptions struct {
	Certificates []tls.Certificate
	Profile      VersionProfile
	NextProtos   []string
}

// NewServerTLSConfig builds a *tls.Config suitable for TLSTransport's
// server-side handshake from opts, applying the same version/cipher-suite
// tables ApplyVersionProfile/ApplyCipherSuites already provide rather than
// duplicating that logic.
func NewServerTLSConfig(opts ServerOptions) *tls.Config {
	profile := opts.Profile
	if profile.Min == 0 && profile.Max == 0 {
		profile = ProfileSecure
	}
	cfg := &tls.Config{
		Certificates: opts.Certificates,
		NextProtos:   opts.NextProtos,
	}
	if len(cfg.NextProtos) == 0 {
		cfg.NextProtos = []string{"http/1.1"}
	}
	ApplyVersionProfile(cfg, profile)
	ApplyCipherSuites(cfg, profile.Min)
	return cfg
}
