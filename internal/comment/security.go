package comment

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/evcraddock/fluent-comments/internal/contenttype"
)

// MaxFormAge is how long an issued form stays postable.
const MaxFormAge = 2 * time.Hour

// Security field names carried as hidden inputs.
const (
	FieldContentType  = "content_type"
	FieldObjectPK     = "object_pk"
	FieldTimestamp    = "timestamp"
	FieldSecurityHash = "security_hash"
)

var securityFields = []string{FieldContentType, FieldObjectPK, FieldTimestamp, FieldSecurityHash}

// securityClaims binds a form to its target and issue time.
type securityClaims struct {
	ContentType string `json:"ct"`
	ObjectPK    string `json:"pk"`
	Timestamp   int64  `json:"ts"`
	jwt.RegisteredClaims
}

// Signer issues and checks the anti-tamper fields of comment forms.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner creates a signer using the site secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Fields returns the hidden security fields for a fresh form on target.
func (s *Signer) Fields(target *contenttype.Target) (url.Values, error) {
	ts := s.now().Unix()
	hash, err := s.hash(target.ContentType, target.PK(), ts)
	if err != nil {
		return nil, err
	}
	return url.Values{
		FieldContentType:  {target.ContentType},
		FieldObjectPK:     {target.PK()},
		FieldTimestamp:    {strconv.FormatInt(ts, 10)},
		FieldSecurityHash: {hash},
	}, nil
}

func (s *Signer) hash(contentType, objectPK string, ts int64) (string, error) {
	claims := securityClaims{
		ContentType: contentType,
		ObjectPK:    objectPK,
		Timestamp:   ts,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing security hash: %w", err)
	}
	return signed, nil
}

// check validates the posted security fields and returns per-field errors.
func (s *Signer) check(data url.Values) FieldErrors {
	errs := FieldErrors{}
	for _, name := range securityFields {
		if data.Get(name) == "" {
			errs.add(name, msgRequired)
		}
	}

	ts, err := strconv.ParseInt(data.Get(FieldTimestamp), 10, 64)
	if _, missing := errs[FieldTimestamp]; !missing {
		switch {
		case err != nil:
			errs.add(FieldTimestamp, "Enter a whole number.")
		case s.now().Sub(time.Unix(ts, 0)) > MaxFormAge:
			errs.add(FieldTimestamp, "Timestamp check failed")
		}
	}

	if _, missing := errs[FieldSecurityHash]; !missing && !s.verify(data, ts) {
		errs.add(FieldSecurityHash, "Security hash check failed.")
	}

	return errs
}

// verify reports whether the posted hash was issued for the posted fields.
func (s *Signer) verify(data url.Values, ts int64) bool {
	var claims securityClaims
	_, err := jwt.ParseWithClaims(data.Get(FieldSecurityHash), &claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return false
	}
	return claims.ContentType == data.Get(FieldContentType) &&
		claims.ObjectPK == data.Get(FieldObjectPK) &&
		claims.Timestamp == ts
}
