// Package notify renders an alert and delivers it. It is the synchronous
// bridge between trigger evaluation and the outside world: the engine only
// records a cooldown once Notify has returned nil.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vigil0/app/core/compose"
	"vigil0/app/core/contextengine"
	"vigil0/app/core/dispatch"
	"vigil0/app/core/persona"
	"vigil0/app/pkg/logger"
)

type Notifier struct {
	composer   compose.Composer
	dispatcher dispatch.Dispatcher
	selector   *persona.Selector
	targets    []string
	nowFn      func() time.Time
}

func New(composer compose.Composer, dispatcher dispatch.Dispatcher, selector *persona.Selector, targets []string) *Notifier {
	return &Notifier{
		composer:   composer,
		dispatcher: dispatcher,
		selector:   selector,
		targets:    targets,
		nowFn:      time.Now,
	}
}

// Notify words the alert for the current context and sends it to every
// configured target. It returns nil when at least one delivery succeeded.
// A compose failure degrades to the raw facts rather than dropping the alert.
func (n *Notifier) Notify(ctx context.Context, alert contextengine.Alert) error {
	if len(n.targets) == 0 {
		return fmt.Errorf("notify: no targets configured")
	}
	critical := alert.Tier == contextengine.TierCritical
	style := n.selector.StyleFor(alert.State, n.nowFn().Hour(), critical)

	text, err := n.composer.Compose(ctx, alert.Facts, style)
	if err != nil {
		logger.Warn("compose failed for %s, falling back to raw facts: %v", alert.RuleID, err)
		text = strings.Join(alert.Facts, " ")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("notify: nothing to send for %s", alert.RuleID)
	}

	delivered := 0
	var lastErr error
	for _, target := range n.targets {
		if err := n.dispatcher.Send(ctx, target, text, style); err != nil {
			logger.Warn("delivery to %s failed: %v", target, err)
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("notify: all deliveries failed: %w", lastErr)
	}
	logger.Info("alert %s delivered to %d/%d targets, tone=%s", alert.RuleID, delivered, len(n.targets), style.Name)
	return nil
}
