package ocsp

import "xdao.co/pqasn/compliance"

// Options controls how message bytes are decoded.
//
// Default behavior is Strict: only DER input is accepted.
type Options struct {
	Mode    compliance.ComplianceMode
	modeSet bool
}

// Option mutates Options.
type Option func(*Options)

// WithMode selects the decode mode. Permissive accepts BER framing; schema
// rules still apply and output is always DER.
func WithMode(mode compliance.ComplianceMode) Option {
	return func(o *Options) {
		o.Mode = mode
		o.modeSet = true
	}
}

func (o Options) mode() compliance.ComplianceMode {
	if !o.modeSet {
		return compliance.Strict
	}
	return o.Mode
}
