package mqtt

import (
	"errors"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken implements pahomqtt.Token and the subscribe token's Result.
type fakeToken struct {
	done   chan struct{}
	err    error
	result map[string]byte
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }
func (t *fakeToken) Result() map[string]byte {
	return t.result
}

// fakeClient implements pahomqtt.Client without a network.
//
// Connect succeeds unless connectErrs holds an error for that attempt, and
// invokes the OnConnect handler synchronously.
type fakeClient struct {
	mu   sync.Mutex
	opts *pahomqtt.ClientOptions

	connectErrs  []error
	hangConnect  bool
	connectCalls int
	connected    bool

	hangSubscribe  bool
	subackCode     *byte
	subscribeCalls []string
	handlers       map[string]pahomqtt.MessageHandler

	disconnectCalls int
}

func newFakeFactory() (*fakeClient, clientFactory) {
	fc := &fakeClient{handlers: make(map[string]pahomqtt.MessageHandler)}
	return fc, func(opts *pahomqtt.ClientOptions) pahomqtt.Client {
		fc.opts = opts
		return fc
	}
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *fakeClient) Connect() pahomqtt.Token {
	c.mu.Lock()
	attempt := c.connectCalls
	c.connectCalls++
	if c.hangConnect {
		c.mu.Unlock()
		return pendingToken()
	}
	var err error
	if attempt < len(c.connectErrs) {
		err = c.connectErrs[attempt]
	}
	if err == nil {
		c.connected = true
	}
	c.mu.Unlock()

	if err == nil && c.opts.OnConnect != nil {
		c.opts.OnConnect(c)
	}
	return doneToken(err)
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCalls++
	c.connected = false
}

func (c *fakeClient) Publish(string, byte, bool, interface{}) pahomqtt.Token {
	return doneToken(nil)
}

func (c *fakeClient) Subscribe(topic string, _ byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subscribeCalls = append(c.subscribeCalls, topic)
	if !c.connected {
		return doneToken(errors.New("not Connected"))
	}
	if c.hangSubscribe {
		return pendingToken()
	}
	c.handlers[topic] = callback

	tok := doneToken(nil)
	code := byte(0)
	if c.subackCode != nil {
		code = *c.subackCode
	}
	tok.result = map[string]byte{topic: code}
	return tok
}

func (c *fakeClient) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return doneToken(nil)
}

func (c *fakeClient) Unsubscribe(...string) pahomqtt.Token { return doneToken(nil) }

func (c *fakeClient) AddRoute(string, pahomqtt.MessageHandler) {}

func (c *fakeClient) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

// deliver invokes the handler registered for filter as the library would.
func (c *fakeClient) deliver(filter, topic string, payload []byte) bool {
	c.mu.Lock()
	handler, ok := c.handlers[filter]
	c.mu.Unlock()
	if !ok {
		return false
	}
	handler(c, &fakeMessage{topic: topic, payload: payload})
	return true
}

// loseConnection simulates a dropped connection.
func (c *fakeClient) loseConnection(err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.opts.OnConnectionLost(c, err)
}

// reconnect simulates the library's automatic reconnect.
func (c *fakeClient) reconnect() {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.opts.OnReconnecting(c, c.opts)
	c.opts.OnConnect(c)
}

func (c *fakeClient) subscribeCount(filter string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.subscribeCalls {
		if f == filter {
			n++
		}
	}
	return n
}

// fakeMessage implements pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}
