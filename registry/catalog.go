package registry

// catalog lists every registered hybrid combination in registration order.
// The name p256_mldsa44 appears twice: first under its legacy arc, then under
// the standards-track arc. See Policy for how duplicates resolve.
//
// RSA combinations are not registered because RSA keys never classify.
var catalog = []Entry{
	{Name: "p256_kyber512", Identifier: "1.3.9999.99.72"},
	{Name: "x25519_kyber512", Identifier: "1.3.9999.99.49"},
	{Name: "p384_kyber768", Identifier: "1.3.9999.99.73"},
	{Name: "x448_kyber768", Identifier: "1.3.9999.99.50"},
	{Name: "x25519_kyber768", Identifier: "1.3.9999.99.51"},
	{Name: "p256_kyber768", Identifier: "1.3.9999.99.52"},
	{Name: "p521_kyber1024", Identifier: "1.3.9999.99.74"},
	{Name: "p256_mlkem512", Identifier: "1.3.6.1.4.1.22554.5.7.1"},
	{Name: "x25519_mlkem512", Identifier: "1.3.6.1.4.1.22554.5.8.1"},
	{Name: "p384_mlkem768", Identifier: "1.3.9999.99.75"},
	{Name: "x448_mlkem768", Identifier: "1.3.9999.99.53"},
	{Name: "x25519_mlkem768", Identifier: "1.3.9999.99.54"},
	{Name: "p256_mlkem768", Identifier: "1.3.9999.99.55"},
	{Name: "p521_mlkem1024", Identifier: "1.3.9999.99.76"},
	{Name: "p384_mlkem1024", Identifier: "1.3.6.1.4.1.42235.6"},
	{Name: "p256_dilithium2", Identifier: "1.3.9999.2.7.1"},
	{Name: "p384_dilithium3", Identifier: "1.3.9999.2.7.3"},
	{Name: "p521_dilithium5", Identifier: "1.3.9999.2.7.4"},
	{Name: "p256_mldsa44", Identifier: "1.3.9999.7.1"},
	{Name: "ed25519_mldsa44", Identifier: "2.16.840.1.114027.80.8.1.3"},
	{Name: "p256_mldsa44", Identifier: "2.16.840.1.114027.80.8.1.4"},
	{Name: "p384_mldsa65", Identifier: "1.3.9999.7.3"},
	{Name: "p256_mldsa65", Identifier: "2.16.840.1.114027.80.8.1.8"},
	{Name: "ed25519_mldsa65", Identifier: "2.16.840.1.114027.80.8.1.10"},
	{Name: "p521_mldsa87", Identifier: "1.3.9999.7.4"},
	{Name: "p384_mldsa87", Identifier: "2.16.840.1.114027.80.8.1.11"},
	{Name: "ed448_mldsa87", Identifier: "2.16.840.1.114027.80.8.1.13"},
	{Name: "p256_sphincssha2128fsimple", Identifier: "1.3.9999.6.4.14"},
	{Name: "p256_sphincssha2128ssimple", Identifier: "1.3.9999.6.4.17"},
	{Name: "p384_sphincssha2192fsimple", Identifier: "1.3.9999.6.5.11"},
	{Name: "p384_sphincssha2192ssimple", Identifier: "1.3.9999.6.5.13"},
	{Name: "p521_sphincssha2256fsimple", Identifier: "1.3.9999.6.6.11"},
	{Name: "p521_sphincssha2256ssimple", Identifier: "1.3.9999.6.6.13"},
	{Name: "p256_sphincsshake128fsimple", Identifier: "1.3.9999.6.7.14"},
	{Name: "p256_sphincsshake128ssimple", Identifier: "1.3.9999.6.7.17"},
	{Name: "p384_sphincsshake192fsimple", Identifier: "1.3.9999.6.8.11"},
	{Name: "p384_sphincsshake192ssimple", Identifier: "1.3.9999.6.8.13"},
	{Name: "p521_sphincsshake256fsimple", Identifier: "1.3.9999.6.9.11"},
	{Name: "p521_sphincsshake256ssimple", Identifier: "1.3.9999.6.9.13"},
}
