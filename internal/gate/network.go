package gate

import (
	"net/http"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// DefaultClientTimeout bounds every request made through the shared client.
const DefaultClientTimeout = 30 * time.Second

// ClientFactory lazily builds the one HTTP client shared by every plugin.
type ClientFactory struct {
	mu      sync.Mutex
	client  *http.Client
	timeout time.Duration
	created int
}

// NewClientFactory creates a factory whose client uses timeout.
func NewClientFactory(timeout time.Duration) *ClientFactory {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &ClientFactory{timeout: timeout}
}

// Client returns the shared client, creating it on first use.
func (f *ClientFactory) Client() *http.Client {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConnsPerHost = 4
		f.client = &http.Client{Timeout: f.timeout, Transport: transport}
		f.created++
	}
	return f.client
}

// Created reports how many clients the factory has built. It never exceeds one.
func (f *ClientFactory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

// Network hands out the shared client to plugins granted Network.
type Network struct {
	guard   Guard
	factory *ClientFactory
}

// NewNetwork gates factory behind guard.
func NewNetwork(guard Guard, factory *ClientFactory) *Network {
	return &Network{guard: guard, factory: factory}
}

// Client returns the shared HTTP client or *permission.Denied.
func (n *Network) Client() (*http.Client, error) {
	if err := n.guard.Check("network.client", permission.Network); err != nil {
		return nil, err
	}
	if n.factory == nil {
		return nil, unavailable("network")
	}
	return n.factory.Client(), nil
}
