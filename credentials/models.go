package credentials

import (
	"time"

	"golang.org/x/oauth2"
)

// Credentials is the persisted OAuth token bundle.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
	ExpiresIn    int64     `json:"expires_in,omitempty"` // Lifetime in seconds at issue time
	Created      int64     `json:"created,omitempty"`    // Unix seconds at issue time
	Scope        string    `json:"scope,omitempty"`
}

// ExpiresAt returns the absolute expiry. Bundles written without an expiry
// field fall back to created + expires_in. The zero time means the token
// carries no expiry information.
func (c *Credentials) ExpiresAt() time.Time {
	if !c.Expiry.IsZero() {
		return c.Expiry
	}
	if c.Created > 0 && c.ExpiresIn > 0 {
		return time.Unix(c.Created+c.ExpiresIn, 0)
	}
	return time.Time{}
}

// Expired reports whether the access token is missing or expires within skew of now.
func (c *Credentials) Expired(now time.Time, skew time.Duration) bool {
	if c.AccessToken == "" {
		return true
	}
	exp := c.ExpiresAt()
	if exp.IsZero() {
		return false
	}
	return !now.Add(skew).Before(exp)
}

// Token converts the bundle into an oauth2 token.
func (c *Credentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.ExpiresAt(),
	}
}

// FromToken builds a bundle from a token endpoint response issued at now.
// An empty refresh token in tok is replaced by previous, so a refresh
// response that omits it never discards the stored one.
func FromToken(tok *oauth2.Token, previous string, now time.Time) *Credentials {
	c := &Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Created:      now.Unix(),
	}
	if c.RefreshToken == "" {
		c.RefreshToken = previous
	}
	if !tok.Expiry.IsZero() {
		c.ExpiresIn = int64(tok.Expiry.Sub(now).Round(time.Second) / time.Second)
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		c.Scope = scope
	}
	return c
}

// clone returns a copy so callers cannot mutate stored state.
func (c *Credentials) clone() *Credentials {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
