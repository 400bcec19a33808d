// Package command classifies free-text utterances onto assistant actions.
package command

import (
	"context"
	"log/slog"
	"strings"

	"go.omifi.dev/companion/internal/types"
	"go.omifi.dev/companion/notify"
)

// Action identifies the branch an utterance was routed to.
type Action string

const (
	ActionTakeScreenshot Action = "take-screenshot"
	ActionSenseClipboard Action = "sense-clipboard"
	ActionShowScreenshot Action = "show-screenshot"
	ActionReadClipboard  Action = "read-clipboard"
	ActionHelp           Action = "help"
	ActionForward        Action = "forward"
)

// Canonical phrases sent to the service instead of the raw utterance
// for branches the service understands by fixed wording.
const (
	phraseOpenScreenshot = "open last screenshot"
	phraseReadClipboard  = "read clipboard"
)

// HelpText is the static command list shown by the help branch.
const HelpText = `Try: "take a screenshot", "sense clipboard", "open last screenshot", "read clipboard"`

// Rule is one classification step. Rules are evaluated in order and the
// first match wins; several keyword sets overlap lexically (for example
// "show the last screenshot" also contains "screenshot"), so the order
// encodes priority and must not be changed.
type Rule struct {
	Action Action
	// Canonical, when set, replaces the raw utterance on the wire.
	Canonical string
	Match     func(text string) bool
}

func containsAll(text string, words ...string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// hasWords reports whether every word appears as its own token. Substring
// matching is wrong here: "screenshot" contains both "screen" and "shot".
func hasWords(text string, words ...string) bool {
	fields := strings.Fields(text)
	for _, w := range words {
		found := false
		for _, f := range fields {
			if f == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Rules returns the ordered rule list. Input text is assumed lowercased
// and trimmed.
func Rules() []Rule {
	return []Rule{
		{
			Action: ActionTakeScreenshot,
			Match: func(t string) bool {
				return containsAll(t, "take", "screenshot") ||
					containsAll(t, "capture", "screen") ||
					hasWords(t, "screen", "shot") ||
					containsAll(t, "take", "picture") ||
					t == "screenshot"
			},
		},
		{
			Action: ActionSenseClipboard,
			Match: func(t string) bool {
				return (containsAny(t, "sense", "get", "check", "save", "copy") &&
					strings.Contains(t, "clipboard")) ||
					t == "clipboard"
			},
		},
		{
			Action:    ActionShowScreenshot,
			Canonical: phraseOpenScreenshot,
			Match: func(t string) bool {
				return containsAny(t, "show", "open", "view") && strings.Contains(t, "screenshot")
			},
		},
		{
			Action:    ActionReadClipboard,
			Canonical: phraseReadClipboard,
			Match: func(t string) bool {
				return containsAny(t, "read", "say", "tell", "speak") && strings.Contains(t, "clipboard")
			},
		},
		{
			Action: ActionHelp,
			Match: func(t string) bool {
				return strings.Contains(t, "help") || containsAll(t, "what", "do")
			},
		},
	}
}

// Capturer performs local-first captures.
type Capturer interface {
	CaptureScreenshot(ctx context.Context) (types.CaptureResult, error)
	CaptureClipboard(ctx context.Context) (types.CaptureResult, error)
}

// Forwarder sends a command phrase to the assistant service.
type Forwarder interface {
	Command(ctx context.Context, text string) (types.CommandResult, error)
}

// Router dispatches utterances. It is stateless per utterance.
type Router struct {
	rules    []Rule
	capturer Capturer
	fwd      Forwarder
	center   *notify.Center
	logger   *slog.Logger
}

// NewRouter wires a Router over the standard rule set.
func NewRouter(capturer Capturer, fwd Forwarder, center *notify.Center, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		rules:    Rules(),
		capturer: capturer,
		fwd:      fwd,
		center:   center,
		logger:   logger,
	}
}

// Classify returns the action an utterance maps to without acting.
func (r *Router) Classify(utterance string) Action {
	text := normalize(utterance)
	for _, rule := range r.rules {
		if rule.Match(text) {
			return rule.Action
		}
	}
	return ActionForward
}

// Route classifies an utterance and executes exactly one branch. It
// returns the action taken.
func (r *Router) Route(ctx context.Context, utterance string) Action {
	text := normalize(utterance)
	r.logger.Info("routing command", "text", text)

	for _, rule := range r.rules {
		if !rule.Match(text) {
			continue
		}
		r.act(ctx, rule, text)
		return rule.Action
	}

	r.forward(ctx, text)
	return ActionForward
}

func (r *Router) act(ctx context.Context, rule Rule, text string) {
	switch rule.Action {
	case ActionTakeScreenshot:
		if _, err := r.capturer.CaptureScreenshot(ctx); err != nil {
			r.logger.Error("screenshot command failed", "error", err)
		}
	case ActionSenseClipboard:
		if _, err := r.capturer.CaptureClipboard(ctx); err != nil {
			r.logger.Error("clipboard command failed", "error", err)
		}
	case ActionHelp:
		if r.center != nil {
			r.center.Info(HelpText)
		}
	default:
		// Canonical phrase goes to the service, not the raw utterance.
		r.forward(ctx, rule.Canonical)
	}
}

func (r *Router) forward(ctx context.Context, text string) {
	res, err := r.fwd.Command(ctx, text)
	if err != nil {
		r.logger.Error("command forwarding failed", "text", text, "error", err)
		if r.center != nil {
			r.center.Warning("Command not recognized")
		}
		return
	}
	if r.center == nil {
		return
	}
	if res.Success {
		r.center.Success(res.Message)
	} else {
		msg := res.Message
		if msg == "" {
			msg = "Command not recognized"
		}
		r.center.Warning(msg)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
