package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// SendToggle asks the resident on port to flip its pause state.
func SendToggle(ctx context.Context, port int) error {
	addr := net.JoinHostPort(residentHost, strconv.Itoa(clampPort(port)))
	resp, err := roundTrip(ctx, addr, toggleRequest)
	if err != nil {
		return err
	}
	if resp != okResponse {
		return fmt.Errorf("singleinstance: resident refused toggle: %q", resp)
	}
	return nil
}

func roundTrip(ctx context.Context, addr, request string) (string, error) {
	d := net.Dialer{Timeout: connDeadline}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoResident, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(connDeadline)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)
	if _, err := conn.Write([]byte(request)); err != nil {
		return "", err
	}
	return bufio.NewReader(conn).ReadString('\n')
}

func ping(addr string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	resp, err := roundTrip(ctx, addr, pingRequest)
	return err == nil && resp == pongResponse
}
