// Package smtp provides a pooled SMTP transport for the email channel.
// Connections are created lazily and recycled; a dead connection found on
// checkout is replaced instead of surfaced to the caller.
package smtp

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"sync"
)

// Config holds SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Pool manages a bounded set of reusable SMTP connections
type Pool struct {
	connections chan *smtp.Client
	config      Config
	size        int
	mu          sync.Mutex
	closed      bool
}

// NewPool creates a connection pool of the given size. Connections are dialed
// on demand rather than eagerly, so a briefly unavailable provider does not
// keep the service from starting.
func NewPool(config Config, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		connections: make(chan *smtp.Client, size),
		config:      config,
		size:        size,
	}
}

// dial creates a new authenticated SMTP connection. Port 465 uses implicit
// TLS; everything else goes through STARTTLS when the server offers it.
func (p *Pool) dial() (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", p.config.Host, p.config.Port)

	var client *smtp.Client
	if p.config.Port == 465 {
		tlsConfig := &tls.Config{
			ServerName: p.config.Host,
			MinVersion: tls.VersionTLS12,
		}
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to dial TLS: %w", err)
		}
		client, err = smtp.NewClient(conn, p.config.Host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		var err error
		client, err = smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial SMTP: %w", err)
		}
		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsConfig := &tls.Config{
				ServerName: p.config.Host,
				MinVersion: tls.VersionTLS12,
			}
			if err := client.StartTLS(tlsConfig); err != nil {
				client.Quit()
				return nil, fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}

	if p.config.Username != "" && p.config.Password != "" {
		auth := smtp.PlainAuth("", p.config.Username, p.config.Password, p.config.Host)
		if err := client.Auth(auth); err != nil {
			client.Quit()
			return nil, fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	return client, nil
}

// Get retrieves a connection from the pool, replacing dead ones
func (p *Pool) Get() (*smtp.Client, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("connection pool is closed")
	}
	p.mu.Unlock()

	select {
	case client := <-p.connections:
		if err := client.Noop(); err != nil {
			client.Quit()
			return p.dial()
		}
		return client, nil
	default:
		return p.dial()
	}
}

// Put returns a connection to the pool; surplus connections are closed
func (p *Pool) Put(client *smtp.Client) {
	if client == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		client.Quit()
		return
	}
	p.mu.Unlock()

	select {
	case p.connections <- client:
	default:
		client.Quit()
	}
}

// Discard closes a connection that hit an error mid-transaction instead of
// returning it to the pool.
func (p *Pool) Discard(client *smtp.Client) {
	if client != nil {
		client.Quit()
	}
}

// Close closes all pooled connections
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.connections)
	for client := range p.connections {
		if client != nil {
			client.Quit()
		}
	}
}

// Size returns the pool capacity
func (p *Pool) Size() int {
	return p.size
}
