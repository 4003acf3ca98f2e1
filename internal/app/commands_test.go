package app

import (
	"testing"
	"time"
)

func TestNotifyCmds(t *testing.T) {
	msg := notifySuccessCmd("done")()
	n, ok := msg.(AddNotificationMsg)
	if !ok {
		t.Fatalf("notifySuccessCmd produced %T", msg)
	}
	if n.Type != NotificationSuccess || n.Message != "done" || n.Duration != DefaultNotificationDuration {
		t.Errorf("unexpected notification: %+v", n)
	}

	msg = notifyErrorCmd("boom")()
	n = msg.(AddNotificationMsg)
	if n.Type != NotificationError || n.Duration != LongNotificationDuration {
		t.Errorf("unexpected error notification: %+v", n)
	}

	msg = notifyWarningCmd("careful")()
	n = msg.(AddNotificationMsg)
	if n.Type != NotificationWarning {
		t.Errorf("unexpected warning notification: %+v", n)
	}

	msg = notifyInfoCmd("fyi")()
	n = msg.(AddNotificationMsg)
	if n.Type != NotificationInfo || n.Duration != QuickNotificationDuration {
		t.Errorf("unexpected info notification: %+v", n)
	}
}

func TestTickCmdsNotNil(t *testing.T) {
	if tickCmd(time.Second) == nil {
		t.Error("tickCmd returned nil")
	}
	if defaultTickCmd() == nil {
		t.Error("defaultTickCmd returned nil")
	}
	if clearNotificationCmd("id", time.Second) == nil {
		t.Error("clearNotificationCmd returned nil")
	}
	if delayedCmd(time.Second, TickMsg{}) == nil {
		t.Error("delayedCmd returned nil")
	}
}

func TestCommandsWrapper(t *testing.T) {
	c := NewCommands(nil)

	if c.Tick(time.Second) == nil {
		t.Error("Tick returned nil")
	}
	if c.DefaultTick() == nil {
		t.Error("DefaultTick returned nil")
	}
	if c.NotifySuccess("ok") == nil {
		t.Error("NotifySuccess returned nil")
	}
	if c.NotifyError("err") == nil {
		t.Error("NotifyError returned nil")
	}
	if c.ClearNotification("id", time.Second) == nil {
		t.Error("ClearNotification returned nil")
	}
	if c.Quit() == nil {
		t.Error("Quit returned nil")
	}
}
