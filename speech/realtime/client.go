package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	opuscodec "github.com/jj11hh/opus"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// Sentinel errors.
var (
	ErrNotReady = errors.New("client not ready")
	ErrClosed   = errors.New("client closed")
)

// sampleRate is the Opus track clock rate; microphone audio must be
// delivered at this rate.
const sampleRate = 48000

// Client is the WebRTC transport to the Realtime transcription API:
// opus-encoded microphone audio out, transcription events back over the
// data channel.
type Client struct {
	mu     sync.Mutex
	closed bool

	apiKey     string
	sessionCfg SessionConfig

	opusEncoder *opuscodec.Encoder
	opusBuffer  []byte
	stereoBuf   []float32
	audioTrack  *webrtc.TrackLocalStaticSample

	peerConnection *webrtc.PeerConnection
	dataChannel    *webrtc.DataChannel

	expiresAt int64
	msgChan   chan Event
	errChan   chan error
	done      chan struct{}
}

// NewClient creates an unconnected client.
func NewClient(apiKey string, cfg SessionConfig) *Client {
	return &Client{
		apiKey:     apiKey,
		sessionCfg: cfg,
		msgChan:    make(chan Event, 100),
		errChan:    make(chan error, 1),
		done:       make(chan struct{}),
		// Max Opus packet size is 1275 bytes.
		opusBuffer: make([]byte, 1275),
	}
}

// Connect mints a session, performs the SDP exchange and starts the
// media pipeline.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	token, err := CreateSession(ctx, c.apiKey, c.sessionCfg)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	slog.Info("transcription session created", "expires", time.Unix(token.ExpiresAt, 0))

	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return fmt.Errorf("register codecs: %w", err)
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(mediaEngine))
	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
	})
	if err != nil {
		return fmt.Errorf("create peer connection: %w", err)
	}

	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{
			MimeType:  webrtc.MimeTypeOpus,
			ClockRate: sampleRate,
			Channels:  2,
		},
		"audio",
		"omifi-mic",
	)
	if err != nil {
		pc.Close()
		return fmt.Errorf("create audio track: %w", err)
	}
	if _, err = pc.AddTrack(audioTrack); err != nil {
		pc.Close()
		return fmt.Errorf("add audio track: %w", err)
	}

	opusEnc, err := opuscodec.NewEncoder(sampleRate, 2, opuscodec.AppRestrictedLowdelay)
	if err != nil {
		pc.Close()
		return fmt.Errorf("create opus encoder: %w", err)
	}

	dc, err := pc.CreateDataChannel("oai-events", nil)
	if err != nil {
		pc.Close()
		return fmt.Errorf("create data channel: %w", err)
	}
	dc.OnMessage(c.handleDataMessage)

	c.mu.Lock()
	c.peerConnection = pc
	c.audioTrack = audioTrack
	c.opusEncoder = opusEnc
	c.dataChannel = dc
	c.expiresAt = token.ExpiresAt
	c.mu.Unlock()

	// The service echoes no useful audio; drain any remote track.
	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		go func() {
			buf := make([]byte, 1500)
			for {
				if _, _, err := track.Read(buf); err != nil {
					return
				}
			}
		}()
	})

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		if state == webrtc.ICEConnectionStateFailed || state == webrtc.ICEConnectionStateClosed {
			select {
			case c.errChan <- fmt.Errorf("ICE connection %s", state.String()):
			default:
			}
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	<-webrtc.GatheringCompletePromise(pc)

	answer, err := ExchangeSDP(ctx, pc.LocalDescription().SDP, token.Value)
	if err != nil {
		return fmt.Errorf("exchange SDP: %w", err)
	}
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer,
	}); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

// ExpiresAt returns the Unix time the session token lapses. Valid after
// Connect.
func (c *Client) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Unix(c.expiresAt, 0)
}

func (c *Client) handleDataMessage(msg webrtc.DataChannelMessage) {
	event, err := ParseEvent(msg.Data)
	if err != nil {
		slog.Warn("failed to parse event", "error", err)
		return
	}
	// msgChan is never closed; Done signals teardown so a message
	// racing Close cannot send on a dead client.
	select {
	case c.msgChan <- event:
	case <-c.done:
	case <-time.After(50 * time.Millisecond):
		slog.Warn("event channel full, dropping", "type", event.eventType())
	}
}

// SendAudio encodes and transmits mono float32 samples captured at
// 48kHz. Samples are duplicated to stereo for the Opus track.
func (c *Client) SendAudio(mono []float32) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	track := c.audioTrack
	encoder := c.opusEncoder
	if cap(c.stereoBuf) < len(mono)*2 {
		c.stereoBuf = make([]float32, len(mono)*2)
	}
	stereo := c.stereoBuf[:len(mono)*2]
	c.mu.Unlock()

	if track == nil || encoder == nil {
		return ErrNotReady
	}

	for i, s := range mono {
		stereo[2*i] = s
		stereo[2*i+1] = s
	}

	n, err := encoder.EncodeFloat32(stereo, c.opusBuffer)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}
	return track.WriteSample(media.Sample{
		Data:     c.opusBuffer[:n],
		Duration: time.Duration(len(mono)) * time.Second / sampleRate,
	})
}

// Messages returns the parsed server event stream. The channel stays
// open for the client's lifetime; Done signals the end of it.
func (c *Client) Messages() <-chan Event {
	return c.msgChan
}

// Done is closed when the client is torn down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Errors reports connection-level failures.
func (c *Client) Errors() <-chan error {
	return c.errChan
}

// Close tears down the connection. Safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.peerConnection != nil {
		_ = c.peerConnection.Close()
	}
	close(c.done)
	return nil
}
