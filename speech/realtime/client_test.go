package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
)

const transcriptMsg = `{"type":"conversation.item.input_audio_transcription.completed","item_id":"item_1","transcript":"hey omifi"}`

// Data channel messages keep arriving while the session is torn down;
// delivery racing Close must drop the message, not panic.
func TestDataMessageRacingCloseDoesNotPanic(t *testing.T) {
	c := NewClient("test-key", SessionConfig{})
	msg := webrtc.DataChannelMessage{Data: []byte(transcriptMsg)}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.handleDataMessage(msg)
			}
		}()
	}
	time.Sleep(5 * time.Millisecond)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	wg.Wait()
}

func TestDataMessageAfterCloseReturnsPromptly(t *testing.T) {
	c := NewClient("test-key", SessionConfig{})
	// Fill the buffer so a blocked send would have to wait out the
	// drop timeout instead of seeing Done.
	for i := 0; i < cap(c.msgChan); i++ {
		c.handleDataMessage(webrtc.DataChannelMessage{Data: []byte(transcriptMsg)})
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	start := time.Now()
	c.handleDataMessage(webrtc.DataChannelMessage{Data: []byte(transcriptMsg)})
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Errorf("delivery took %v after Close, want immediate drop", elapsed)
	}

	select {
	case <-c.Done():
	default:
		t.Error("Done not closed after Close")
	}
}

func TestCloseTwice(t *testing.T) {
	c := NewClient("test-key", SessionConfig{})
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
