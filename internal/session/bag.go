package session

import "sync"

// Bag is the session-scoped key/value store shared by all stages of one
// pipeline run. Writes are last-write-wins per key. Stages within a session
// never run concurrently, but the bag still locks so advisory observers can
// snapshot state while a stage runs.
type Bag struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewBag returns an empty state bag.
func NewBag() *Bag {
	return &Bag{values: make(map[string]any)}
}

// Set stores value under key, replacing any prior value.
func (b *Bag) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// Get returns the value stored under key.
func (b *Bag) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.values[key]
	return value, ok
}

// Missing returns the subset of keys that have no value yet, in input order.
func (b *Bag) Missing(keys ...string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var missing []string
	for _, key := range keys {
		if _, ok := b.values[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Snapshot copies the current contents for diagnostics and reporting.
func (b *Bag) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.values))
	for key, value := range b.values {
		out[key] = value
	}
	return out
}

// String returns the value under key when it is a string.
func (b *Bag) String(key string) (string, bool) {
	value, ok := b.Get(key)
	if !ok {
		return "", false
	}
	text, ok := value.(string)
	return text, ok
}

// Int returns the value under key when it is an int.
func (b *Bag) Int(key string) (int, bool) {
	value, ok := b.Get(key)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// OutlineValue returns the outline stored under KeyContentOutline.
func (b *Bag) OutlineValue() (Outline, bool) {
	value, ok := b.Get(KeyContentOutline)
	if !ok {
		return Outline{}, false
	}
	outline, ok := value.(Outline)
	return outline, ok
}

// Assets returns the multimedia asset records stored under KeyMultimediaAssets.
func (b *Bag) Assets() ([]Asset, bool) {
	value, ok := b.Get(KeyMultimediaAssets)
	if !ok {
		return nil, false
	}
	assets, ok := value.([]Asset)
	return assets, ok
}
