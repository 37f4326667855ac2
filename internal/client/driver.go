package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"screencast/backend/internal/models"

	"github.com/sirupsen/logrus"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateGivenUp
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateGivenUp:
		return "given-up"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	DefaultKeepAlive   = 30 * time.Second
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 30 * time.Second
	DefaultMaxAttempts = 10
)

var (
	ErrNotConnected   = errors.New("signaling socket not connected")
	ErrAlreadyStarted = errors.New("driver already started")
)

var pingMessage = []byte(`{"type":"ping"}`)

// Driver keeps one signaling socket open. It reconnects with exponential
// backoff after abnormal closes, sends keep-alive pings and re-sends the last
// join after every reconnect.
//
// Fields must be set before Connect.
type Driver struct {
	URL         string
	Transport   Transport
	Scheduler   Scheduler
	KeepAlive   time.Duration
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	// OnMessage receives every inbound message. It runs on the read loop.
	OnMessage func(data []byte)
	// OnStateChange is called after each transition, outside the driver lock.
	OnStateChange func(State)

	mu        sync.Mutex
	state     State
	conn      Conn
	gen       uint64 // changes whenever conn is replaced or dropped
	session   uint64 // changes on every Connect
	attempts  int
	keepAlive Timer
	retry     Timer
	join      []byte
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewDriver(url string, transport Transport) *Driver {
	return &Driver{
		URL:         url,
		Transport:   transport,
		Scheduler:   RealScheduler{},
		KeepAlive:   DefaultKeepAlive,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Connect opens the socket. A failed first dial is retried like any abnormal
// close, and its error is returned. Cancelling ctx disconnects the driver.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateDisconnected && d.state != StateGivenUp {
		d.mu.Unlock()
		return ErrAlreadyStarted
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.session++
	session := d.session
	context.AfterFunc(d.ctx, func() { d.stop(session) })

	d.attempts = 0
	d.gen++
	gen, dialCtx := d.gen, d.ctx
	notify := d.setState(StateConnecting)
	d.mu.Unlock()
	notify()

	return d.dial(dialCtx, gen)
}

// Disconnect closes the socket with the normal close code and cancels every
// pending timer. No reconnect follows.
func (d *Driver) Disconnect() {
	d.mu.Lock()
	d.disconnectLocked()
}

// Send writes data if connected. Otherwise it does nothing and returns
// ErrNotConnected.
func (d *Driver) Send(data []byte) error {
	d.mu.Lock()
	conn := d.conn
	connected := d.state == StateConnected && conn != nil
	d.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	return conn.WriteMessage(data)
}

func (d *Driver) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return d.Send(data)
}

// Join associates the socket with a room participant. The join is remembered
// and repeated after every reconnect, even if this send finds the driver
// disconnected.
func (d *Driver) Join(roomCode, deviceID, participantID string, role models.Role) error {
	data, err := json.Marshal(models.JoinRoom{
		Type:          models.TypeJoinRoom,
		RoomCode:      roomCode,
		DeviceID:      deviceID,
		ParticipantID: participantID,
		Role:          role,
	})
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.join = data
	d.mu.Unlock()
	return d.Send(data)
}

func (d *Driver) stop(session uint64) {
	d.mu.Lock()
	if session != d.session {
		d.mu.Unlock()
		return
	}
	d.disconnectLocked()
}

// disconnectLocked must be called with d.mu held and releases it.
func (d *Driver) disconnectLocked() {
	conn := d.conn
	d.conn = nil
	d.gen++
	d.stopTimersLocked()
	if d.cancel != nil {
		d.cancel()
	}
	notify := d.setState(StateDisconnected)
	d.mu.Unlock()
	notify()

	if conn != nil {
		if err := conn.Close(CloseNormal); err != nil {
			logrus.WithError(err).Debug("Signaling close failed")
		}
	}
}

func (d *Driver) dial(ctx context.Context, gen uint64) error {
	conn, err := d.Transport.Dial(ctx, d.URL)

	d.mu.Lock()
	if gen != d.gen {
		// Disconnected while dialing.
		d.mu.Unlock()
		if conn != nil {
			conn.Close(CloseNormal)
		}
		if err == nil {
			err = ErrNotConnected
		}
		return err
	}
	if err != nil {
		logrus.WithField("url", d.URL).WithError(err).Warn("Signaling dial failed")
		notify := d.retryLocked()
		d.mu.Unlock()
		notify()
		return err
	}
	join := d.join
	d.mu.Unlock()

	// The join goes out before anything else can use the socket.
	if join != nil {
		if err := conn.WriteMessage(join); err != nil {
			conn.Close(CloseNormal)
			d.mu.Lock()
			if gen != d.gen {
				d.mu.Unlock()
				return err
			}
			notify := d.retryLocked()
			d.mu.Unlock()
			notify()
			return err
		}
	}

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		conn.Close(CloseNormal)
		return ErrNotConnected
	}
	d.conn = conn
	d.attempts = 0
	d.scheduleKeepAliveLocked(gen)
	notify := d.setState(StateConnected)
	d.mu.Unlock()
	notify()

	go d.readLoop(conn, gen)
	return nil
}

func (d *Driver) readLoop(conn Conn, gen uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			d.closed(gen, CloseCode(err))
			return
		}
		if d.OnMessage != nil {
			d.OnMessage(data)
		}
	}
}

// closed handles the end of the socket of generation gen.
func (d *Driver) closed(gen uint64, code int) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.conn = nil
	d.gen++
	d.stopTimersLocked()

	logCtx := logrus.WithFields(logrus.Fields{"url": d.URL, "close_code": code})
	if code == CloseNormal {
		logCtx.Info("Signaling socket closed normally")
		if d.cancel != nil {
			d.cancel()
		}
		notify := d.setState(StateDisconnected)
		d.mu.Unlock()
		notify()
		return
	}

	logCtx.Warn("Signaling socket closed abnormally")
	notify := d.retryLocked()
	d.mu.Unlock()
	notify()
}

// Backoff returns the delay before reconnect attempt n (0-based).
func (d *Driver) Backoff(n int) time.Duration {
	delay := d.BaseDelay
	for i := 0; i < n && delay < d.MaxDelay; i++ {
		delay *= 2
	}
	if delay > d.MaxDelay {
		delay = d.MaxDelay
	}
	return delay
}

// retryLocked schedules the next reconnect or gives up.
func (d *Driver) retryLocked() func() {
	if d.ctx != nil && d.ctx.Err() != nil {
		return d.setState(StateDisconnected)
	}
	if d.attempts >= d.MaxAttempts {
		logrus.WithFields(logrus.Fields{"url": d.URL, "attempts": d.attempts}).Error("Signaling reconnect attempts exhausted")
		return d.setState(StateGivenUp)
	}

	delay := d.Backoff(d.attempts)
	d.attempts++
	gen, ctx := d.gen, d.ctx
	logrus.WithFields(logrus.Fields{"url": d.URL, "attempt": d.attempts, "delay": delay}).Info("Scheduling signaling reconnect")
	d.retry = d.Scheduler.AfterFunc(delay, func() { d.reconnect(ctx, gen) })
	return d.setState(StateReconnecting)
}

func (d *Driver) reconnect(ctx context.Context, gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.state != StateReconnecting {
		d.mu.Unlock()
		return
	}
	d.retry = nil
	d.mu.Unlock()

	d.dial(ctx, gen)
}

func (d *Driver) scheduleKeepAliveLocked(gen uint64) {
	if d.KeepAlive <= 0 {
		return
	}
	d.keepAlive = d.Scheduler.AfterFunc(d.KeepAlive, func() { d.sendKeepAlive(gen) })
}

// sendKeepAlive pings and only then schedules the next ping.
func (d *Driver) sendKeepAlive(gen uint64) {
	d.mu.Lock()
	conn := d.conn
	if gen != d.gen || conn == nil {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	if err := conn.WriteMessage(pingMessage); err != nil {
		// The read loop reports the close.
		logrus.WithError(err).Debug("Keep-alive write failed")
		return
	}

	d.mu.Lock()
	if gen == d.gen {
		d.scheduleKeepAliveLocked(gen)
	}
	d.mu.Unlock()
}

func (d *Driver) stopTimersLocked() {
	if d.keepAlive != nil {
		d.keepAlive.Stop()
		d.keepAlive = nil
	}
	if d.retry != nil {
		d.retry.Stop()
		d.retry = nil
	}
}

// setState must be called with d.mu held. The returned func reports the
// change and must be called after unlocking.
func (d *Driver) setState(s State) func() {
	if d.state == s {
		return func() {}
	}
	d.state = s
	cb := d.OnStateChange
	if cb == nil {
		return func() {}
	}
	return func() { cb(s) }
}
