package state

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// KV is the persistence backend of a Persisted store.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
}

// Persisted mirrors a Store into a KV under one key as JSON.
type Persisted[T any] struct {
	*Store[T]

	kv   KV
	key  string
	init func(*T)
	log  zerolog.Logger
	once sync.Once
}

type Option[T any] func(*Persisted[T])

// WithInitializer runs fn on every value loaded from storage before it is
// set, e.g. to assign missing ids. Persist loads eagerly when one is given.
func WithInitializer[T any](fn func(*T)) Option[T] {
	return func(p *Persisted[T]) { p.init = fn }
}

func WithLogger[T any](log zerolog.Logger) Option[T] {
	return func(p *Persisted[T]) { p.log = log }
}

func Persist[T any](s *Store[T], kv KV, key string, opts ...Option[T]) (*Persisted[T], error) {
	p := &Persisted[T]{Store: s, kv: kv, key: key, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}

	if p.init != nil {
		if err := p.Load(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Persisted[T]) Key() string {
	return p.key
}

// Load reads the key and sets the decoded value. A missing key leaves the
// store untouched.
func (p *Persisted[T]) Load() error {
	data, ok, err := p.kv.Get(p.key)
	if err != nil {
		return fmt.Errorf("load %s: %w", p.key, err)
	}
	if !ok {
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode %s: %w", p.key, err)
	}
	if p.init != nil {
		p.init(&v)
	}
	p.Set(v)
	return nil
}

// UseStorage loads the stored value and from then on writes every set back
// to the KV. The write-back subscription is installed only once.
func (p *Persisted[T]) UseStorage() error {
	if err := p.Load(); err != nil {
		return err
	}

	p.once.Do(func() {
		// Skip the immediate call on subscribe; the value just came from storage.
		first := true
		p.Subscribe(func(v T) {
			if first {
				first = false
				return
			}
			p.write(v)
		})
	})
	return nil
}

func (p *Persisted[T]) write(v T) {
	data, err := json.Marshal(v)
	if err != nil {
		p.log.Error().Err(err).Str("key", p.key).Msg("encode store value")
		return
	}
	if err := p.kv.Put(p.key, data); err != nil {
		p.log.Error().Err(err).Str("key", p.key).Msg("persist store value")
		return
	}
	p.log.Debug().Str("key", p.key).Int("bytes", len(data)).Msg("persisted")
}

// EachElement adapts an element initializer to a slice initializer.
func EachElement[E any](fn func(*E)) func(*[]E) {
	return func(list *[]E) {
		for i := range *list {
			fn(&(*list)[i])
		}
	}
}
