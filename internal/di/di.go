// Package di provides a minimal typed service container used to wire
// bounded-context modules together.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get returns the service registered under name, constructing it on
	// first access when it was registered as a factory. Panics if unknown:
	// wiring errors are programmer errors surfaced at startup.
	Get(name string) any
}

// Container is the write side of the container.
type Container interface {
	ServiceRegistry

	// Register stores a ready-made service instance under name.
	Register(name string, service any)

	// RegisterFactory stores a lazily-evaluated constructor under name.
	// The factory runs at most once; its result is memoized.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type container struct {
	mu        sync.Mutex
	services  map[string]any
	factories map[string]func(ServiceRegistry) any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

func (c *container) Register(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

func (c *container) Get(name string) any {
	c.mu.Lock()
	if svc, ok := c.services[name]; ok {
		c.mu.Unlock()
		return svc
	}
	factory, ok := c.factories[name]
	c.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", name))
	}

	// Run the factory outside the lock so factories can resolve their own
	// dependencies through Get.
	svc := factory(c)

	c.mu.Lock()
	c.services[name] = svc
	c.mu.Unlock()

	return svc
}

// Token is a typed handle for a registered service.
type Token[T any] struct {
	name string
}

// NewToken creates a token. The name must be unique across modules; the
// convention is "<context>.<Service>" for public services and
// "<context>:<dependency>" for private ones.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the token's registration name.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory for tok.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves tok from the registry.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	svc, ok := sr.Get(tok.name).(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type", tok.name))
	}
	return svc
}
