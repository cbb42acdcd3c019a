// Package remoteref provides typed references to objects resolved from the
// remote document API: sites, drives, folders, items and users.
//
// A Ref is only ever built from an identifier the server returned. The zero
// Ref means "not resolved" and is rejected by every consumer.
package remoteref

import (
	"encoding"
	"errors"
	"fmt"
	"strings"
)

// Kind tags what a Ref points at.
type Kind uint8

// Reference kinds, in containment order.
const (
	KindUnknown Kind = iota
	KindSite
	KindDrive
	KindFolder
	KindItem
	KindUser
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindSite:    "site",
	KindDrive:   "drive",
	KindFolder:  "folder",
	KindItem:    "item",
	KindUser:    "user",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", k)
}

// ErrEmptyID is returned when a Ref would be built from an empty identifier.
var ErrEmptyID = errors.New("remoteref: empty identifier")

// ErrKindMismatch is returned by Expect when a Ref has the wrong kind.
var ErrKindMismatch = errors.New("remoteref: kind mismatch")

// Ref is an opaque server identifier plus its kind.
type Ref struct {
	kind Kind
	id   string
}

// New builds a Ref from a server-returned identifier. Identifiers are kept
// verbatim: site ids ("host,guid,guid") and drive ids ("b!...") are case
// sensitive on some endpoints.
func New(kind Kind, id string) (Ref, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Ref{}, fmt.Errorf("%w for %s", ErrEmptyID, kind)
	}

	if kind == KindUnknown || int(kind) >= len(kindNames) {
		return Ref{}, fmt.Errorf("remoteref: invalid kind %d", kind)
	}

	return Ref{kind: kind, id: id}, nil
}

// ID returns the raw server identifier.
func (r Ref) ID() string {
	return r.id
}

// Kind returns the reference kind.
func (r Ref) Kind() Kind {
	return r.kind
}

// IsZero reports whether r was never resolved.
func (r Ref) IsZero() bool {
	return r.id == ""
}

// Expect returns an error unless r is resolved and of kind k.
func (r Ref) Expect(k Kind) error {
	if r.IsZero() {
		return fmt.Errorf("%w: unresolved %s reference", ErrEmptyID, k)
	}

	if r.kind != k {
		return fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, k, r.kind)
	}

	return nil
}

// String renders "kind:id", or "" for the zero Ref.
func (r Ref) String() string {
	if r.IsZero() {
		return ""
	}

	return r.kind.String() + ":" + r.id
}

// MarshalText implements encoding.TextMarshaler as the raw id, which is the
// shape exported JSON listings use.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.id), nil
}

// Compile-time interface assertions.
var (
	_ encoding.TextMarshaler = Ref{}
	_ fmt.Stringer           = Ref{}
	_ fmt.Stringer           = KindSite
)
