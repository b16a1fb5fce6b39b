package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	config "vigil0/app/configs"
	"vigil0/app/core/contextengine"
	"vigil0/app/core/persona"
	"vigil0/app/pkg/types"
)

type stubComposer struct {
	text string
	err  error
}

func (s *stubComposer) Compose(ctx context.Context, facts []string, style persona.Style) (string, error) {
	return s.text, s.err
}

type sentMessage struct {
	target string
	text   string
	style  persona.Style
}

type stubDispatcher struct {
	sent    []sentMessage
	failFor map[string]error
}

func (s *stubDispatcher) Send(ctx context.Context, target, text string, style persona.Style) error {
	if err, ok := s.failFor[target]; ok {
		return err
	}
	s.sent = append(s.sent, sentMessage{target: target, text: text, style: style})
	return nil
}

func alertCoding() contextengine.Alert {
	return contextengine.Alert{
		RuleID: "battery_warning",
		Tier:   contextengine.TierCritical,
		Facts:  []string{"Battery at 12%.", "Charger not connected."},
		State:  types.StateCoding,
	}
}

func newNotifier(c *stubComposer, d *stubDispatcher, targets ...string) *Notifier {
	n := New(c, d, persona.NewSelector(config.PersonaConfig{LateHour: 22}), targets)
	n.nowFn = func() time.Time { return time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC) }
	return n
}

func TestNotifyDeliversToAllTargets(t *testing.T) {
	d := &stubDispatcher{}
	n := newNotifier(&stubComposer{text: "heads up"}, d, "1", "2")
	if err := n.Notify(context.Background(), alertCoding()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(d.sent) != 2 {
		t.Fatalf("sent = %d messages, want 2", len(d.sent))
	}
	for _, m := range d.sent {
		if m.text != "heads up" {
			t.Fatalf("text = %q", m.text)
		}
		if m.style.Name != "focused" {
			t.Fatalf("style = %q, want focused", m.style.Name)
		}
	}
}

func TestNotifyComposeFailureFallsBackToFacts(t *testing.T) {
	d := &stubDispatcher{}
	n := newNotifier(&stubComposer{err: errors.New("model down")}, d, "1")
	if err := n.Notify(context.Background(), alertCoding()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(d.sent) != 1 || d.sent[0].text != "Battery at 12%. Charger not connected." {
		t.Fatalf("sent = %+v", d.sent)
	}
}

func TestNotifyPartialDeliveryStillSucceeds(t *testing.T) {
	d := &stubDispatcher{failFor: map[string]error{"1": errors.New("chat not found")}}
	n := newNotifier(&stubComposer{text: "heads up"}, d, "1", "2")
	if err := n.Notify(context.Background(), alertCoding()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(d.sent) != 1 || d.sent[0].target != "2" {
		t.Fatalf("sent = %+v", d.sent)
	}
}

func TestNotifyAllDeliveriesFailedIsAnError(t *testing.T) {
	d := &stubDispatcher{failFor: map[string]error{"1": errors.New("down")}}
	n := newNotifier(&stubComposer{text: "heads up"}, d, "1")
	if err := n.Notify(context.Background(), alertCoding()); err == nil {
		t.Fatal("expected error when every delivery fails")
	}
}

func TestNotifyNoTargets(t *testing.T) {
	n := newNotifier(&stubComposer{text: "heads up"}, &stubDispatcher{})
	if err := n.Notify(context.Background(), alertCoding()); err == nil {
		t.Fatal("expected error without targets")
	}
}

func TestNotifyDeepWorkNormalAlertIsMuted(t *testing.T) {
	d := &stubDispatcher{}
	n := newNotifier(&stubComposer{text: "heads up"}, d, "1")
	alert := contextengine.Alert{
		RuleID: "terminal_error",
		Tier:   contextengine.TierNormal,
		Facts:  []string{"terminal error detected."},
		State:  types.StateDeepWork,
	}
	if err := n.Notify(context.Background(), alert); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !d.sent[0].style.Muted {
		t.Fatal("normal-tier delivery during deep work should be muted")
	}
}

func TestNotifyCriticalAlertInDeepWorkStaysAudible(t *testing.T) {
	d := &stubDispatcher{}
	n := newNotifier(&stubComposer{text: "plug in"}, d, "1")
	alert := alertCoding()
	alert.State = types.StateDeepWork
	if err := n.Notify(context.Background(), alert); err != nil {
		t.Fatalf("notify: %v", err)
	}
	got := d.sent[0].style
	if got.Name != "minimal" {
		t.Fatalf("style = %q, want minimal wording in deep work", got.Name)
	}
	if got.Muted {
		t.Fatal("critical-tier delivery must not be muted during deep work")
	}
}
