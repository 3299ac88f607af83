package repository

import "context"

// KVStore is the persistent key-value storage the app shell keeps its
// flags in. Get reports ok=false for an absent key.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Prefixed namespaces every key of an underlying store.
type Prefixed struct {
	store  KVStore
	prefix string
}

func NewPrefixed(store KVStore, prefix string) *Prefixed {
	return &Prefixed{store: store, prefix: prefix}
}

// DeviceStore scopes a store to one device install.
func DeviceStore(store KVStore, deviceID string) *Prefixed {
	return NewPrefixed(store, "device:"+deviceID+":")
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p *Prefixed) Set(ctx context.Context, key, value string) error {
	return p.store.Set(ctx, p.prefix+key, value)
}

func (p *Prefixed) Remove(ctx context.Context, key string) error {
	return p.store.Remove(ctx, p.prefix+key)
}
