// Copyright 2021 Daniel Basedow. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package apk

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"reflect"
	"time"

	"go.mozilla.org/pkcs7"
)

// CertInfo summarizes the signer certificate of a package.
type CertInfo struct {
	// The certificate authority that issued the signer certificate. For
	// the self-signed certificates typical of APKs this equals the
	// subject.
	Issuer string `json:"issuer"`

	// The entity the certificate's public key belongs to.
	Subject string `json:"subject"`

	// Validity bounds.
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`

	// Hex-encoded serial number.
	SerialNumber string `json:"serial_number"`

	SignatureAlgorithm x509.SignatureAlgorithm `json:"signature_algorithm"`
	PublicKeyAlgorithm x509.PublicKeyAlgorithm `json:"public_key_algorithm"`
}

// GetKeyFingerprintSHA256 walks a DER-encoded PKCS#7 signer block down
// to the certificate and returns its SHA-256 digest. Any structural
// problem on the way reports ErrInvalidCertificate.
func GetKeyFingerprintSHA256(data []byte) ([sha256.Size]byte, error) {
	cert, err := signerCertificate(data)
	if err != nil {
		return [sha256.Size]byte{}, ErrInvalidCertificate
	}
	return sha256.Sum256(cert), nil
}

// signerCertificate descends the fixed path through the PKCS#7
// container: ContentInfo -> content -> SignedData, whose fourth child
// is the certificate set.
func signerCertificate(data []byte) ([]byte, error) {
	root, err := ParseDataElement(data)
	if err != nil {
		return nil, err
	}
	children, err := root.ParseChildren()
	if err != nil {
		return nil, err
	}
	if len(children) < 2 {
		return nil, ErrInvalidCertificate
	}
	children, err = children[1].ParseChildren()
	if err != nil {
		return nil, err
	}
	if len(children) < 1 {
		return nil, ErrInvalidCertificate
	}
	children, err = children[0].ParseChildren()
	if err != nil {
		return nil, err
	}
	if len(children) < 4 {
		return nil, ErrInvalidCertificate
	}
	return children[3].Data(), nil
}

// parseCertInfo extracts the signer certificate summary from a PKCS#7
// blob, keyed by the first signer's serial number.
func parseCertInfo(data []byte) (CertInfo, error) {
	var info CertInfo

	p7, err := pkcs7.Parse(data)
	if err != nil {
		return info, ErrInvalidCertificate
	}
	if len(p7.Signers) == 0 {
		return info, ErrInvalidCertificate
	}

	serialNumber := p7.Signers[0].IssuerAndSerialNumber.SerialNumber
	for _, cert := range p7.Certificates {
		if !reflect.DeepEqual(cert.SerialNumber, serialNumber) {
			continue
		}

		info.SerialNumber = hex.EncodeToString(cert.SerialNumber.Bytes())
		info.PublicKeyAlgorithm = cert.PublicKeyAlgorithm
		info.SignatureAlgorithm = cert.SignatureAlgorithm
		info.NotBefore = cert.NotBefore
		info.NotAfter = cert.NotAfter
		info.Issuer = distinguishedName(cert.Issuer.Country, cert.Issuer.Province,
			cert.Issuer.Locality, cert.Issuer.Organization, cert.Issuer.CommonName)
		info.Subject = distinguishedName(cert.Subject.Country, cert.Subject.Province,
			cert.Subject.Locality, cert.Subject.Organization, cert.Subject.CommonName)
		return info, nil
	}

	return info, ErrInvalidCertificate
}

func distinguishedName(country, province, locality, organization []string, commonName string) string {
	var name string
	appendPart := func(parts []string) {
		if len(parts) == 0 {
			return
		}
		if name != "" {
			name += ", "
		}
		name += parts[0]
	}
	appendPart(country)
	appendPart(province)
	appendPart(locality)
	appendPart(organization)
	if name != "" {
		name += ", "
	}
	return name + commonName
}
