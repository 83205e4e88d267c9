package smtp

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"time"

	"github.com/mailcore/smtpcore/lalog"
)

// MaxCommandLength is the maximum acceptable length of a single command
// line. It does not bound the DATA body, which is governed separately by
// CodecConfig.MaxMessageLength.
const MaxCommandLength = 4096

// CodecConfig tunes a Codec's timeouts and size limits.
type CodecConfig struct {
	TLSConfig                          *tls.Config
	IOTimeout                          time.Duration
	MaxMessageLength                   int64
	MaxConsecutiveUnrecognisedCommands int
	ServerName                         string
}

/*
Codec is the frame layer of a connection: it turns a net.Conn into a
stream of command lines and, on request, a stream of dot-unstuffed DATA
body chunks, and it knows how to swap its underlying connection for a
crypto/tls one in place when STARTTLS succeeds.

Reads use a deadline set before every I/O call rather than any
cooperative suspension scheme, matching how blocking I/O expresses
"a read may legitimately not complete yet" in Go.
*/
type Codec struct {
	cfg    CodecConfig
	logger lalog.Logger

	conn        net.Conn
	limitReader *io.LimitedReader
	textReader  *textproto.Reader

	// pending is not read or written by any Codec method; WriteReply
	// renders each Reply, including a multi-line EHLO reply, and sends it
	// with a single Write.
	pending []byte
}

// NewCodec wraps conn for line-oriented command reads. The caller must
// have already validated cfg (all durations/limits positive, ServerName
// non-empty); NewCodec panics otherwise since these are programmer errors,
// not runtime conditions.
func NewCodec(conn net.Conn, cfg CodecConfig, logger lalog.Logger) *Codec {
	if cfg.MaxConsecutiveUnrecognisedCommands < 1 || cfg.MaxMessageLength < 1 || cfg.IOTimeout < 1 {
		panic("smtp: missing codec configuration")
	}
	if cfg.ServerName == "" {
		panic("smtp: server name must not be empty")
	}
	c := &Codec{cfg: cfg, logger: logger}
	c.setConn(conn)
	return c
}

func (c *Codec) setConn(conn net.Conn) {
	c.conn = conn
	c.limitReader = io.LimitReader(conn, MaxCommandLength).(*io.LimitedReader)
	c.textReader = textproto.NewReader(bufio.NewReader(c.limitReader))
}

// RemoteAddr returns the underlying connection's remote address string.
func (c *Codec) RemoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// ReadCommandLine reads one CRLF-terminated line, enforcing
// MaxCommandLength. It returns io.ErrUnexpectedEOF if the peer hit the
// line length limit without terminating, or the underlying read error
// otherwise (including io.EOF on a clean disconnect).
func (c *Codec) ReadCommandLine() (string, error) {
	c.limitReader.N = MaxCommandLength
	c.logger.MaybeMinorError(c.conn.SetReadDeadline(time.Now().Add(c.cfg.IOTimeout)))
	line, err := c.textReader.ReadLine()
	if err != nil {
		return "", err
	}
	if c.limitReader.N == 0 {
		return "", io.ErrUnexpectedEOF
	}
	return line, nil
}

// BodyChunk is one unit of dot-unstuffed body data handed to a MailSink.
// EndsInNewline tells the caller whether this chunk's data ends exactly
// on a line boundary, which is what separates TransactionMode Data from
// DataPartial.
type BodyChunk struct {
	Data          []byte
	EndsInNewline bool
	Final         bool
}

// bodyChunkSize is the buffer size used to stream DATA to a MailSink; body
// transfer never buffers the whole message in memory regardless of
// CodecConfig.MaxMessageLength.
const bodyChunkSize = 8192

// ReadBody streams dot-unstuffed DATA body chunks to onChunk until the
// terminating "." line, enforcing MaxMessageLength across the whole body.
// onChunk is called with Final=true exactly once, with a possibly-empty
// final Data slice, to signal end of data.
func (c *Codec) ReadBody(onChunk func(BodyChunk) error) error {
	c.limitReader.N = c.cfg.MaxMessageLength
	c.logger.MaybeMinorError(c.conn.SetReadDeadline(time.Now().Add(c.cfg.IOTimeout)))
	dotReader := c.textReader.DotReader()
	buf := make([]byte, bodyChunkSize)
	endsInNewline := true
	for {
		n, err := dotReader.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			endsInNewline = chunk[len(chunk)-1] == '\n'
			if cbErr := onChunk(BodyChunk{Data: chunk, EndsInNewline: endsInNewline}); cbErr != nil {
				return cbErr
			}
			// A fresh deadline per read matches the command path: each
			// blocking call gets its own IOTimeout budget.
			c.logger.MaybeMinorError(c.conn.SetReadDeadline(time.Now().Add(c.cfg.IOTimeout)))
		}
		if err == io.EOF {
			return onChunk(BodyChunk{Final: true, EndsInNewline: endsInNewline})
		}
		if err != nil {
			return err
		}
		if c.limitReader.N == 0 {
			return io.ErrUnexpectedEOF
		}
	}
}

// WriteReply sends a fully-rendered Reply. It is the only place a
// session writes a response to the wire.
func (c *Codec) WriteReply(r Reply) error {
	c.logger.MaybeMinorError(c.conn.SetWriteDeadline(time.Now().Add(c.cfg.IOTimeout)))
	_, err := c.conn.Write(r.Bytes())
	return err
}

// SupportsTLS reports whether this codec was configured with a TLS
// provider at all.
func (c *Codec) SupportsTLS() bool { return c.cfg.TLSConfig != nil }

// UpgradeTLS performs the server-side TLS handshake in place and, on
// success, replaces the codec's underlying reader/writer with the new TLS
// connection. The command-stage read/write buffers are discarded since
// RFC 3207 requires the conversation to be parsed fresh after STARTTLS -
// any bytes already buffered from before the handshake would otherwise be
// smuggled in as plaintext commands.
func (c *Codec) UpgradeTLS() (tls.ConnectionState, error) {
	if c.cfg.TLSConfig == nil {
		return tls.ConnectionState{}, fmt.Errorf("smtp: TLS not configured")
	}
	c.logger.MaybeMinorError(c.conn.SetDeadline(time.Now().Add(c.cfg.IOTimeout)))
	tlsConn := tls.Server(c.conn, c.cfg.TLSConfig)
	if err := tlsConn.Handshake(); err != nil {
		return tls.ConnectionState{}, err
	}
	c.logger.MaybeMinorError(c.conn.SetReadDeadline(time.Time{}))
	c.setConn(tlsConn)
	return tlsConn.ConnectionState(), nil
}

// Close closes the underlying connection.
func (c *Codec) Close() error {
	return c.conn.Close()
}
