package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"inatscraper/pkg/config"
	"inatscraper/pkg/scraper"
)

const appName = "iNaturalist Scraper"

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name", appName, title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName("text")
		$text.Item(0).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode(%q)) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier(%q).Show($toast)
	`, title, message, appName)

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// PlatformSender returns the desktop sender for the current OS, or nil
func PlatformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	default:
		return nil
	}
}

// Notifier prints run notifications to the console and, when a sender is
// set, mirrors them to the desktop.
type Notifier struct {
	cfg    config.NotificationConfig
	sender NotificationSender
	out    io.Writer
}

// NewNotifier creates a Notifier from the notification settings.
// Type "desktop" uses the platform sender; anything else stays on the console.
func NewNotifier(cfg config.NotificationConfig) *Notifier {
	n := &Notifier{cfg: cfg, out: os.Stdout}
	if cfg.NotificationType == "desktop" {
		n.sender = PlatformSender()
	}
	return n
}

// WithSender replaces the desktop sender
func (n *Notifier) WithSender(s NotificationSender) *Notifier {
	n.sender = s
	return n
}

// WithOutput replaces the console writer
func (n *Notifier) WithOutput(w io.Writer) *Notifier {
	n.out = w
	return n
}

// SendNotification sends a desktop notification and prints to console
func (n *Notifier) SendNotification(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Cyan(title), Yellow(message))
	n.send(title, message)
}

// SendError sends an error notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

// SendSuccess sends a success notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

// NotifyRun reports the end of a run according to the configured preferences.
// runErr is the error Run returned, if any.
func (n *Notifier) NotifyRun(run *scraper.RunSummary, runErr error) {
	if !n.cfg.Enabled {
		return
	}

	switch {
	case runErr != nil:
		if n.cfg.OnError {
			n.SendError(appName, fmt.Sprintf("Run stopped: %v", runErr))
		}
	case run != nil && run.Failures() > 0:
		if n.cfg.OnError {
			n.SendError(appName, fmt.Sprintf("%d images downloaded, %d species ended on errors",
				run.TotalDownloaded(), run.Failures()))
		}
	case run != nil:
		if n.cfg.OnComplete {
			n.SendSuccess(appName, fmt.Sprintf("%d images downloaded for %d species",
				run.TotalDownloaded(), len(run.Species)))
		}
	}
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// desktop notifications are best effort
		_ = n.sender.Send(title, message)
	}
}
