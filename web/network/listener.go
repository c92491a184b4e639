// Package network wraps the server listener with TLS. Clients that speak
// plain HTTP to the TLS port get a redirect to the https URL instead of a
// handshake error.
package network

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// recordTypeHandshake is the first byte of every TLS ClientHello.
const recordTypeHandshake = 0x16

const sniffTimeout = 10 * time.Second

type accepted struct {
	conn net.Conn
	err  error
}

// TLSListener serves TLS and answers plain HTTP requests with a 307 to the
// same URL over https. Connections are classified on their own goroutine,
// so Accept only ever waits for a connection that is ready for TLS.
type TLSListener struct {
	net.Listener
	config *tls.Config

	ready     chan accepted
	done      chan struct{}
	closeOnce sync.Once
}

func NewTLSListener(inner net.Listener, config *tls.Config) *TLSListener {
	l := &TLSListener{
		Listener: inner,
		config:   config,
		ready:    make(chan accepted),
		done:     make(chan struct{}),
	}
	go l.acceptLoop()
	return l
}

func (l *TLSListener) acceptLoop() {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			select {
			case l.ready <- accepted{err: err}:
			case <-l.done:
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return
		}
		go l.classify(conn)
	}
}

func (l *TLSListener) classify(conn net.Conn) {
	sc := &sniffedConn{Conn: conn, r: bufio.NewReader(conn)}
	_ = conn.SetReadDeadline(time.Now().Add(sniffTimeout))
	first, err := sc.r.Peek(1)
	_ = conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return
	}
	if first[0] != recordTypeHandshake {
		redirect(sc)
		return
	}
	select {
	case l.ready <- accepted{conn: tls.Server(sc, l.config)}:
	case <-l.done:
		conn.Close()
	}
}

// Accept returns the next connection that opened with a TLS handshake.
func (l *TLSListener) Accept() (net.Conn, error) {
	select {
	case a := <-l.ready:
		return a.conn, a.err
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *TLSListener) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	return l.Listener.Close()
}

func redirect(sc *sniffedConn) {
	defer sc.Close()
	_ = sc.SetDeadline(time.Now().Add(sniffTimeout))
	req, err := http.ReadRequest(sc.r)
	if err != nil {
		return
	}
	resp := http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Close:      true,
	}
	resp.Header.Set("Location", fmt.Sprintf("https://%s%s", req.Host, req.RequestURI))
	_ = resp.Write(sc)
}

// sniffedConn replays the bytes peeked while classifying the connection.
type sniffedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *sniffedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
