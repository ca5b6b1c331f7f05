package ws

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/procpipe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/procpipe/internal/shared/id"
	"github.com/GriffinCanCode/procpipe/internal/shared/types"
	"github.com/GriffinCanCode/procpipe/internal/spawn"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware governs browser access
	},
}

// Config tunes output polling.
type Config struct {
	// PollInterval is the delay after data was read and the first backoff step.
	PollInterval time.Duration
	// MaxBackoff caps the delay between polls of an idle descriptor.
	MaxBackoff time.Duration
}

// Reader performs one non-blocking read of a descriptor.
type Reader interface {
	Read(fd int) ([]byte, error)
}

// Handler streams child output over WebSocket connections
type Handler struct {
	reader  Reader
	metrics *monitoring.Metrics
	log     *zap.Logger
	cfg     Config
}

// NewHandler creates a new stream handler
func NewHandler(reader Reader, metrics *monitoring.Metrics, log *zap.Logger, cfg Config) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.PollInterval {
		cfg.MaxBackoff = cfg.PollInterval
	}
	return &Handler{
		reader:  reader,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
	}
}

// HandleConnection upgrades the request and serves one stream
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncStreams()
	defer h.metrics.DecStreams()

	s := &stream{
		Handler: h,
		conn:    conn,
		log:     h.log.With(zap.String("stream_id", id.NewStreamID().String())),
	}
	s.log.Debug("Stream opened", zap.String("remote_addr", c.ClientIP()))
	s.run(c.Request.Context())
	s.log.Debug("Stream closed")
}

// stream is the state of one connection. Only run touches it.
type stream struct {
	*Handler
	conn *websocket.Conn
	log  *zap.Logger

	fd      int
	active  bool
	backoff time.Duration
}

func (s *stream) run(ctx context.Context) {
	incoming := make(chan types.StreamMessage)
	done := make(chan struct{})
	defer close(done)
	go s.readLoop(incoming, done)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-incoming:
			if !ok {
				return
			}
			if err := s.handleMessage(msg, timer); err != nil {
				return
			}

		case <-timer.C:
			if !s.active {
				continue
			}
			if err := s.poll(); err != nil {
				return
			}
			if s.active {
				timer.Reset(s.backoff)
			}
		}
	}
}

// readLoop forwards client frames until the connection fails or run exits
func (s *stream) readLoop(out chan<- types.StreamMessage, done <-chan struct{}) {
	defer close(out)
	s.conn.SetReadLimit(maxMessageSize)

	for {
		var msg types.StreamMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		select {
		case out <- msg:
		case <-done:
			return
		}
	}
}

func (s *stream) handleMessage(msg types.StreamMessage, timer *time.Timer) error {
	switch msg.Type {
	case types.StreamSubscribe:
		s.metrics.RecordWSMessage("in", msg.Type)
		if msg.FD == nil || *msg.FD < 0 {
			return s.sendError("subscribe requires a non-negative fd", "")
		}
		// Switching descriptors leaves the old one open; the caller owns it.
		s.fd = *msg.FD
		s.active = true
		s.backoff = s.cfg.PollInterval
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(0)
		s.log.Debug("Stream subscribed", zap.Int("fd", s.fd))
		return nil

	case types.StreamPing:
		s.metrics.RecordWSMessage("in", msg.Type)
		return s.send(types.StreamMessage{Type: types.StreamPong})

	default:
		s.metrics.RecordWSMessage("in", "unknown")
		return s.sendError("unknown message type", "")
	}
}

// poll performs one read and adjusts the backoff
func (s *stream) poll() error {
	data, err := s.reader.Read(s.fd)
	switch {
	case spawn.IsTransient(err):
		s.backoff *= 2
		if s.backoff > s.cfg.MaxBackoff {
			s.backoff = s.cfg.MaxBackoff
		}
		return nil

	case err != nil:
		s.active = false
		return s.sendError(err.Error(), spawn.ErrnoName(spawn.Errno(err)))

	case len(data) == 0:
		s.active = false
		return s.send(types.StreamMessage{Type: types.StreamEOF, FD: &s.fd})

	default:
		s.backoff = s.cfg.PollInterval
		return s.send(types.StreamMessage{
			Type:       types.StreamOutput,
			FD:         &s.fd,
			DataBase64: base64.StdEncoding.EncodeToString(data),
			Length:     len(data),
		})
	}
}

func (s *stream) send(msg types.StreamMessage) error {
	msg.Timestamp = time.Now().Unix()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.Debug("WebSocket write error", zap.Error(err))
		return err
	}
	s.metrics.RecordWSMessage("out", msg.Type)
	return nil
}

func (s *stream) sendError(message, errno string) error {
	return s.send(types.StreamMessage{
		Type:  types.StreamError,
		Error: message,
		Errno: errno,
	})
}
