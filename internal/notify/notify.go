// Package notify publishes the organizer's alerts to an SNS topic.
package notify

import (
	"context"
	"fmt"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"organizer/internal/log"
	"organizer/internal/render"
)

// API is the part of *sns.Client the notifier uses.
type API interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AlertStateFile is the marker kept in the state dir while a low-battery
// alert is outstanding.
const AlertStateFile = "low_battery_alerted.txt"

// Notifier sends one low-battery alert each time the charge drops into the
// accent tier. It re-arms once the charge is back above it.
//
// With StatePath set the armed state lives on disk, so a process started by
// each RTC wake does not alert again for the same descent.
type Notifier struct {
	SNS       API
	TopicARN  string
	Location  *time.Location
	StatePath string

	mu      sync.Mutex
	alerted bool
	now     func() time.Time
}

// New loads the default AWS configuration (environment, shared config,
// instance role). An empty topic yields a nil Notifier, which is valid and
// does nothing.
func New(ctx context.Context, topicARN string, loc *time.Location, stateDir string) (*Notifier, error) {
	if topicARN == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("notify: aws config: %w", err)
	}
	n := &Notifier{SNS: sns.NewFromConfig(awsCfg), TopicARN: topicARN, Location: loc}
	if stateDir != "" {
		n.StatePath = filepath.Join(stateDir, AlertStateFile)
	}
	return n, nil
}

// LowBattery reports level. It publishes only on the transition into the
// accent tier. Unknown levels neither alert nor re-arm.
func (n *Notifier) LowBattery(ctx context.Context, level float64) error {
	if n == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if level == render.BatteryUnknown || math.IsNaN(level) {
		return nil
	}
	if !render.SelectBatteryIcon(level).Accent {
		return n.rearm()
	}
	if n.isAlerted() {
		return nil
	}

	now := time.Now
	if n.now != nil {
		now = n.now
	}
	loc := n.Location
	if loc == nil {
		loc = time.Local
	}

	msg := fmt.Sprintf("Date: %s\nBattery: %.0f%%\nThe organizer will stop refreshing soon; please charge it.",
		now().In(loc).Format("Monday, Jan 02 2006 15:04"), level)
	_, err := n.SNS.Publish(ctx, &sns.PublishInput{
		Subject:  aws.String("Organizer battery low"),
		Message:  aws.String(msg),
		TopicArn: aws.String(n.TopicARN),
	})
	if err != nil {
		return fmt.Errorf("notify: publish to %s: %w", n.TopicARN, err)
	}
	log.Info("low battery alert sent", "level", level, "topic", n.TopicARN)
	return n.markAlerted(now())
}

func (n *Notifier) isAlerted() bool {
	if n.StatePath == "" {
		return n.alerted
	}
	_, err := os.Stat(n.StatePath)
	return err == nil
}

func (n *Notifier) markAlerted(at time.Time) error {
	n.alerted = true
	if n.StatePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(n.StatePath), 0o700); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	tmp := n.StatePath + ".tmp"
	if err := os.WriteFile(tmp, []byte(at.UTC().Format(time.RFC3339)+"\n"), 0o600); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := os.Rename(tmp, n.StatePath); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

func (n *Notifier) rearm() error {
	n.alerted = false
	if n.StatePath == "" {
		return nil
	}
	if err := os.Remove(n.StatePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}
