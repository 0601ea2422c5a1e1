// Package notifier pushes desktop notifications through the mono-tray
// companion app, which advertises its webhook in a lockfile.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// ErrTrayNotRunning means no live tray app could be found.
var ErrTrayNotRunning = errors.New(constants.TrayAppExecutable + " is not running")

type WebhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

type Notifier struct {
	http *resty.Client
}

func New() *Notifier {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetRetryCount(constants.NotifyMaxRetries).
		SetRetryWaitTime(constants.NotifyRetryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Notifier{http: client}
}

// Notify shows text as a desktop notification.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		return err
	}

	ep, err := findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	payload := WebhookPayload{Text: text, DurationMs: constants.NotificationDurationMs}
	if err := n.send(ctx, ep, payload); err != nil {
		return err
	}
	logger.Debug("Sent notification", "port", ep.port)
	return nil
}

// NotifyTask announces a scheduled task.
func (n *Notifier) NotifyTask(ctx context.Context, task models.Task) error {
	return n.Notify(ctx, fmt.Sprintf("%s  %s", task.Time, task.Title))
}

// NotifyReply tells the user Mo has answered, trimming long replies.
func (n *Notifier) NotifyReply(ctx context.Context, msg models.Message) error {
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return nil
	}
	if r := []rune(text); len(r) > 120 {
		text = string(r[:119]) + "…"
	}
	return n.Notify(ctx, "Mo: "+text)
}

// GetTrayAppConfigDir returns the directory holding the tray lockfile. The
// tray's settings.json may point it somewhere else.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err != nil {
		return trayConfigDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &store); err != nil {
		logger.Debug("Ignoring unreadable tray settings", "error", err)
		return trayConfigDir, nil
	}
	if d := store.Settings.LockfileDir; d != nil && *d != "" {
		return *d, nil
	}
	return trayConfigDir, nil
}

type endpoint struct {
	port   int
	pid    int
	secret string
}

// findAndValidateTrayProcess parses a "port|pid|secret" lockfile and checks
// that pid is a live tray process.
func findAndValidateTrayProcess(lockfilePath string) (endpoint, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return endpoint{}, ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return endpoint{}, errors.New("lockfile is malformed")
	}

	if strings.TrimSpace(parts[0]) == "" {
		return endpoint{}, errors.New("port in lockfile is empty")
	}
	port, err := strconv.Atoi(parts[0])
	if err != nil {
		return endpoint{}, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return endpoint{}, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return endpoint{}, errors.New("invalid process ID in lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return endpoint{}, errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return endpoint{}, ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayAppExecutable) {
		return endpoint{}, fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayAppExecutable, process.Executable())
	}

	return endpoint{port: port, pid: pid, secret: secret}, nil
}

func (n *Notifier) send(ctx context.Context, ep endpoint, payload WebhookPayload) error {
	res, err := n.http.R().
		SetContext(ctx).
		SetHeader("X-Mono-Secret", ep.secret).
		SetBody(payload).
		Post(fmt.Sprintf("http://127.0.0.1:%d", ep.port))
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("notification failed with status %d: %s", res.StatusCode(), strings.TrimSpace(res.String()))
	}
	return nil
}
