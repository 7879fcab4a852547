package render

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rbright/talker/internal/presentation"
)

// DesktopBackend shows the frame image as a persistent freedesktop
// notification icon, replacing one notification in place.
type DesktopBackend struct {
	appName string

	mu             sync.Mutex
	notificationID uint32
}

// Draw implements Backend.
func (b *DesktopBackend) Draw(ctx context.Context, frame presentation.Frame) error {
	if !frame.Visible {
		return b.dismiss(ctx)
	}

	b.mu.Lock()
	replaceID := b.notificationID
	b.mu.Unlock()

	appName := strings.TrimSpace(b.appName)
	if appName == "" {
		appName = "talker"
	}

	id, err := desktopNotify(ctx, appName, replaceID, frame.Path, appName, 0)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.notificationID = id
	b.mu.Unlock()
	return nil
}

// dismiss closes the current notification ID when present.
func (b *DesktopBackend) dismiss(ctx context.Context) error {
	b.mu.Lock()
	id := b.notificationID
	b.notificationID = 0
	b.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// desktopNotify sends a freedesktop notification over DBus via busctl.
// It returns the notification ID assigned by the server.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, icon string, summary string, timeoutMS int) (uint32, error) {
	args := []string{
		"--user",
		"call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		"Notify",
		"susssasa{sv}i",
		appName,
		strconv.FormatUint(uint64(replaceID), 10),
		icon,
		summary,
		"",
		"0", // actions array length
		"0", // hints map length
		strconv.Itoa(timeoutMS),
	}

	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return 0, fmt.Errorf("desktop notify failed: %w", err)
		}
		return 0, fmt.Errorf("desktop notify failed: %w (%s)", err, trimmed)
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", strings.TrimSpace(string(out)))
	}

	value, parseErr := strconv.ParseUint(fields[1], 10, 32)
	if parseErr != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", fields[1], parseErr)
	}
	return uint32(value), nil
}

// desktopDismiss requests explicit close by notification ID.
func desktopDismiss(ctx context.Context, id uint32) error {
	args := []string{
		"--user",
		"call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		"CloseNotification",
		"u",
		strconv.FormatUint(uint64(id), 10),
	}

	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return fmt.Errorf("desktop dismiss failed: %w", err)
		}
		return fmt.Errorf("desktop dismiss failed: %w (%s)", err, trimmed)
	}

	return nil
}
