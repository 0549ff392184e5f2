// Package singleinstance keeps one resident per user session and lets later
// invocations talk to it over a loopback TCP port.
package singleinstance

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"time"
)

const (
	DefaultPort = 49500

	residentHost  = "127.0.0.1"
	pingRequest   = "PING\n"
	pongResponse  = "PONG\n"
	toggleRequest = "TOGGLE\n"
	okResponse    = "OK\n"
	errorResponse = "ERROR\n"
	connDeadline  = 2 * time.Second
	probeTimeout  = 300 * time.Millisecond
	minUserPort   = 1024
	maxPortNumber = 65535
)

var (
	ErrAlreadyRunning = errors.New("another instance is already running")
	ErrNoResident     = errors.New("no running instance found")
)

// Resident owns the instance port and answers PING and TOGGLE requests.
type Resident struct {
	lis      net.Listener
	port     int
	onToggle func()
	wg       sync.WaitGroup
}

// Acquire binds the instance port. When another resident already answers on
// it, ErrAlreadyRunning is returned. onToggle runs on the accept goroutine
// and must not block.
func Acquire(port int, onToggle func()) (*Resident, error) {
	port = clampPort(port)
	addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		if ping(addr, probeTimeout) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("singleinstance: bind %s: %w", addr, err)
	}
	r := &Resident{lis: lis, port: port, onToggle: onToggle}
	log.Printf("singleinstance: listening on %s", addr)
	r.wg.Add(1)
	go r.acceptLoop()
	return r, nil
}

// Port returns the bound port.
func (r *Resident) Port() int { return r.port }

// Close releases the port and waits for the accept loop.
func (r *Resident) Close() error {
	err := r.lis.Close()
	r.wg.Wait()
	return err
}

func (r *Resident) acceptLoop() {
	defer r.wg.Done()
	for {
		c, err := r.lis.Accept()
		if err != nil {
			return
		}
		r.serve(c)
	}
}

func (r *Resident) serve(c net.Conn) {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(connDeadline))
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return
	}

	var resp string
	switch line {
	case pingRequest:
		resp = pongResponse
	case toggleRequest:
		log.Printf("singleinstance: pause toggle requested by %s", c.RemoteAddr())
		if r.onToggle != nil {
			r.onToggle()
		}
		resp = okResponse
	default:
		log.Printf("singleinstance: unknown request %q from %s", line, c.RemoteAddr())
		resp = errorResponse
	}
	_, _ = c.Write([]byte(resp))
}

func clampPort(port int) int {
	if port < minUserPort || port > maxPortNumber {
		return DefaultPort
	}
	return port
}
