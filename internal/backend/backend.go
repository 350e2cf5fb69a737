// Package backend opens the storage gateway selected by configuration and
// wraps it with the resilience layer.
package backend

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"finance-tracker/internal/storage"
)

// Kind names a storage implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
	KindRedis  Kind = "redis"
)

var knownKinds = []Kind{KindMemory, KindSQLite, KindRedis}

// ParseKind accepts a backend name, ignoring case and surrounding space.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(knownKinds, k) {
		return "", fmt.Errorf("unknown storage backend %q (want one of %s)", name, strings.Join(KindNames(), ", "))
	}
	return k, nil
}

// KindNames lists the accepted backend names in preference order.
func KindNames() []string {
	names := make([]string, 0, len(knownKinds))
	for _, k := range knownKinds {
		names = append(names, string(k))
	}
	return names
}

// Result is an opened gateway and the function that releases it.
type Result struct {
	Gateway storage.Gateway
	Cleanup func() error
}

// Factory opens gateways.
type Factory interface {
	CreateGateway(ctx context.Context, cfg Config) (*Result, error)
}
