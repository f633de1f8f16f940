package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender delivers a desktop notification.
type NotificationSender interface {
	Send(title, message string) error
}

type linuxSender struct{}

func (linuxSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

type macSender struct{}

func (macSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

type windowsSender struct{}

func (windowsSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName("text")
		$text.Item(0).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("imagegrab").Show($toast)
	`, title, message)
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier announces finished runs on the desktop.
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform. On other platforms
// notifications are dropped.
func NewNotifier() *Notifier {
	switch runtime.GOOS {
	case "linux":
		return &Notifier{sender: linuxSender{}}
	case "darwin":
		return &Notifier{sender: macSender{}}
	case "windows":
		return &Notifier{sender: windowsSender{}}
	}
	return &Notifier{}
}

// NewNotifierWith uses sender, which may be nil.
func NewNotifierWith(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// RunFinished reports the outcome counts of a download run.
func (n *Notifier) RunFinished(source string, saved, skipped, failed int) error {
	if n == nil || n.sender == nil {
		return nil
	}
	msg := fmt.Sprintf("%d saved, %d skipped, %d failed", saved, skipped, failed)
	return n.sender.Send("imagegrab: "+source, msg)
}
