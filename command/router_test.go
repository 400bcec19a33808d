package command

import (
	"context"
	"errors"
	"testing"

	"go.omifi.dev/companion/internal/types"
)

type fakeCapturer struct {
	screenshots int
	clipboards  int
}

func (f *fakeCapturer) CaptureScreenshot(ctx context.Context) (types.CaptureResult, error) {
	f.screenshots++
	return types.CaptureResult{Success: true}, nil
}

func (f *fakeCapturer) CaptureClipboard(ctx context.Context) (types.CaptureResult, error) {
	f.clipboards++
	return types.CaptureResult{Success: true}, nil
}

type fakeForwarder struct {
	sent []string
	err  error
}

func (f *fakeForwarder) Command(ctx context.Context, text string) (types.CommandResult, error) {
	f.sent = append(f.sent, text)
	if f.err != nil {
		return types.CommandResult{}, f.err
	}
	return types.CommandResult{Success: true, Message: "done"}, nil
}

func TestClassify(t *testing.T) {
	r := NewRouter(nil, nil, nil, nil)

	tests := []struct {
		utterance string
		want      Action
	}{
		{"take a screenshot", ActionTakeScreenshot},
		{"capture the screen", ActionTakeScreenshot},
		{"grab a screen shot", ActionTakeScreenshot},
		{"take a picture", ActionTakeScreenshot},
		{"screenshot", ActionTakeScreenshot},
		{"  Screenshot  ", ActionTakeScreenshot},
		{"sense the clipboard", ActionSenseClipboard},
		{"save my clipboard", ActionSenseClipboard},
		{"clipboard", ActionSenseClipboard},
		{"show the last screenshot", ActionShowScreenshot},
		{"open my latest screenshot", ActionShowScreenshot},
		{"read the clipboard", ActionReadClipboard},
		{"say what's on the clipboard", ActionReadClipboard},
		{"help", ActionHelp},
		{"what can you do", ActionHelp},
		{"play some music", ActionForward},
		{"", ActionForward},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			if got := r.Classify(tt.utterance); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.utterance, got, tt.want)
			}
		})
	}
}

// The take branch accepts "screen" and "shot" only as separate words;
// the single token "screenshot" contains both as substrings and must not
// trip it, or every show/open utterance would be captured instead.
func TestScreenShotWordsAreNotSubstrings(t *testing.T) {
	r := NewRouter(nil, nil, nil, nil)

	if got := r.Classify("open the screenshot"); got != ActionShowScreenshot {
		t.Errorf("Classify(open the screenshot) = %q, want %q", got, ActionShowScreenshot)
	}
	if got := r.Classify("grab a screen shot"); got != ActionTakeScreenshot {
		t.Errorf("Classify(grab a screen shot) = %q, want %q", got, ActionTakeScreenshot)
	}
}

// "show me the last screenshot" contains "screenshot", which also
// appears in the take branch's trigger set; rule order must route it to
// the show branch.
func TestOrderSensitivity(t *testing.T) {
	cap := &fakeCapturer{}
	fwd := &fakeForwarder{}
	r := NewRouter(cap, fwd, nil, nil)

	got := r.Route(context.Background(), "show me the last screenshot")
	if got != ActionShowScreenshot {
		t.Fatalf("action = %q, want %q", got, ActionShowScreenshot)
	}
	if cap.screenshots != 0 {
		t.Error("take branch executed; routing fell through")
	}
	if len(fwd.sent) != 1 || fwd.sent[0] != "open last screenshot" {
		t.Errorf("forwarded = %v, want canonical phrase", fwd.sent)
	}
}

func TestCanonicalPhraseForReadClipboard(t *testing.T) {
	fwd := &fakeForwarder{}
	r := NewRouter(&fakeCapturer{}, fwd, nil, nil)

	r.Route(context.Background(), "please read my clipboard aloud")
	if len(fwd.sent) != 1 || fwd.sent[0] != "read clipboard" {
		t.Errorf("forwarded = %v, want [read clipboard]", fwd.sent)
	}
}

func TestCaptureBranchesInvokeDispatcher(t *testing.T) {
	cap := &fakeCapturer{}
	fwd := &fakeForwarder{}
	r := NewRouter(cap, fwd, nil, nil)

	r.Route(context.Background(), "take a screenshot")
	r.Route(context.Background(), "check the clipboard")

	if cap.screenshots != 1 || cap.clipboards != 1 {
		t.Errorf("screenshots = %d, clipboards = %d; want 1, 1", cap.screenshots, cap.clipboards)
	}
	if len(fwd.sent) != 0 {
		t.Errorf("forwarded = %v, want none", fwd.sent)
	}
}

func TestHelpStaysLocal(t *testing.T) {
	fwd := &fakeForwarder{}
	r := NewRouter(&fakeCapturer{}, fwd, nil, nil)

	r.Route(context.Background(), "help me out")
	if len(fwd.sent) != 0 {
		t.Errorf("help branch called the server: %v", fwd.sent)
	}
}

func TestDefaultForwardsRawUtterance(t *testing.T) {
	fwd := &fakeForwarder{}
	r := NewRouter(&fakeCapturer{}, fwd, nil, nil)

	r.Route(context.Background(), "Turn On The Lights")
	if len(fwd.sent) != 1 || fwd.sent[0] != "turn on the lights" {
		t.Errorf("forwarded = %v, want normalized raw utterance", fwd.sent)
	}
}

func TestForwardTransportFailure(t *testing.T) {
	fwd := &fakeForwarder{err: errors.New("connection refused")}
	r := NewRouter(&fakeCapturer{}, fwd, nil, nil)

	// Must not panic and must still report the forward action.
	if got := r.Route(context.Background(), "do something odd"); got != ActionForward {
		t.Errorf("action = %q, want forward", got)
	}
}
