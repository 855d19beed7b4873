package rest

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"time"
)

// Bearer sends "Authorization: <Scheme> <Token>". Scheme defaults to Bearer.
type Bearer struct {
	Scheme string
	Token  string
}

func (b Bearer) Authenticate(req *http.Request) error {
	if b.Token == "" {
		return errors.New("empty token")
	}
	scheme := b.Scheme
	if scheme == "" {
		scheme = "Bearer"
	}
	req.Header.Set("Authorization", scheme+" "+b.Token)
	return nil
}

// HeaderKey sends an API key in a dedicated header.
type HeaderKey struct {
	Header string
	Key    string
}

func (h HeaderKey) Authenticate(req *http.Request) error {
	if h.Key == "" {
		return errors.New("empty api key")
	}
	req.Header.Set(h.Header, h.Key)
	return nil
}

// HMACSigner signs each request with the current time, as DNS Made Easy
// expects: the HMAC-SHA1 of the request date keyed by the secret.
type HMACSigner struct {
	Key    string
	Secret string
	Now    func() time.Time
}

func (s HMACSigner) Authenticate(req *http.Request) error {
	if s.Key == "" || s.Secret == "" {
		return errors.New("api key and secret required")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	date := now().UTC().Format(http.TimeFormat)
	req.Header.Set("x-dnsme-apiKey", s.Key)
	req.Header.Set("x-dnsme-requestDate", date)
	req.Header.Set("x-dnsme-hmac", Sign(s.Secret, date))
	return nil
}

// Sign returns hex(HMAC-SHA1(secret, msg)).
func Sign(secret, msg string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
