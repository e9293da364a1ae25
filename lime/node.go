// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package lime implements the LIME protocol envelopes used by BLiP.
package lime

import (
	"fmt"
	"strings"
)

// Identity is the "name@domain" part of an address.
type Identity struct {
	Name   string
	Domain string
}

// NewIdentity builds an identity from its parts.
func NewIdentity(name, domain string) Identity {
	return Identity{Name: name, Domain: domain}
}

// ParseIdentity parses "name@domain". A value without "@" is a domain-only identity.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identity{}, nil
	}
	if strings.Contains(s, "/") {
		return Identity{}, fmt.Errorf("lime: identity %q must not contain an instance", s)
	}
	name, domain, found := strings.Cut(s, "@")
	if !found {
		return Identity{Domain: s}, nil
	}
	if domain == "" {
		return Identity{}, fmt.Errorf("lime: identity %q has an empty domain", s)
	}
	return Identity{Name: name, Domain: domain}, nil
}

// MustParseIdentity is like ParseIdentity but panics on error.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (i Identity) String() string {
	if i.Name == "" {
		return i.Domain
	}
	return i.Name + "@" + i.Domain
}

// IsZero reports whether both name and domain are empty.
func (i Identity) IsZero() bool {
	return i.Name == "" && i.Domain == ""
}

// ToNode returns a node with no instance.
func (i Identity) ToNode() Node {
	return Node{Identity: i}
}

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(b []byte) error {
	parsed, err := ParseIdentity(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Node is a fully qualified address: "name@domain/instance".
type Node struct {
	Identity
	Instance string
}

// NewNode builds a node from its parts.
func NewNode(name, domain, instance string) Node {
	return Node{Identity: Identity{Name: name, Domain: domain}, Instance: instance}
}

// ParseNode parses "name@domain/instance"; name and instance are optional.
func ParseNode(s string) (Node, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Node{}, nil
	}
	addr, instance, _ := strings.Cut(s, "/")
	id, err := ParseIdentity(addr)
	if err != nil {
		return Node{}, err
	}
	if id.Domain == "" {
		return Node{}, fmt.Errorf("lime: node %q has an empty domain", s)
	}
	return Node{Identity: id, Instance: instance}, nil
}

// MustParseNode is like ParseNode but panics on error.
func MustParseNode(s string) Node {
	n, err := ParseNode(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Node) String() string {
	if n.Instance == "" {
		return n.Identity.String()
	}
	return n.Identity.String() + "/" + n.Instance
}

// IsZero reports whether the node carries no address at all.
func (n Node) IsZero() bool {
	return n.Identity.IsZero() && n.Instance == ""
}

// ToIdentity drops the instance.
func (n Node) ToIdentity() Identity {
	return n.Identity
}

// Equal compares nodes case-insensitively on name and domain.
func (n Node) Equal(o Node) bool {
	return strings.EqualFold(n.Name, o.Name) &&
		strings.EqualFold(n.Domain, o.Domain) &&
		n.Instance == o.Instance
}

func (n Node) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Node) UnmarshalText(b []byte) error {
	parsed, err := ParseNode(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
