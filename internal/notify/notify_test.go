package notify

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func newTestNotifier(api API) *Notifier {
	return &Notifier{
		SNS:      api,
		TopicARN: "arn:aws:sns:eu-west-1:123456789012:organizer",
		Location: time.UTC,
		now:      func() time.Time { return time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC) },
	}
}

func TestLowBattery(t *testing.T) {
	api := &fakeSNS{}
	n := newTestNotifier(api)

	steps := []struct {
		level     float64
		published int
	}{
		{55, 0},
		{-1, 0},
		{math.NaN(), 0},
		{18, 1},
		{12, 1}, // still low, already alerted
		{-1, 1}, // unreadable, stays alerted
		{11, 1},
		{45, 1}, // charged, re-armed
		{19.9, 2},
	}
	for _, s := range steps {
		if err := n.LowBattery(context.Background(), s.level); err != nil {
			t.Fatalf("LowBattery(%v): %v", s.level, err)
		}
		if len(api.inputs) != s.published {
			t.Fatalf("after %v: %d published, want %d", s.level, len(api.inputs), s.published)
		}
	}

	in := api.inputs[0]
	if aws.ToString(in.TopicArn) != n.TopicARN {
		t.Errorf("TopicArn = %q", aws.ToString(in.TopicArn))
	}
	msg := aws.ToString(in.Message)
	if !strings.Contains(msg, "Battery: 18%") || !strings.Contains(msg, "Monday, May 06 2024 09:30") {
		t.Errorf("Message = %q", msg)
	}
}

func TestLowBatteryStateSurvivesRestart(t *testing.T) {
	api := &fakeSNS{}
	path := filepath.Join(t.TempDir(), AlertStateFile)

	// Each RTC wake starts a fresh process with a fresh notifier.
	wake := func(level float64) {
		t.Helper()
		n := newTestNotifier(api)
		n.StatePath = path
		if err := n.LowBattery(context.Background(), level); err != nil {
			t.Fatalf("LowBattery(%v): %v", level, err)
		}
	}

	wake(15)
	wake(14)
	if len(api.inputs) != 1 {
		t.Fatalf("published %d across wakes, want 1", len(api.inputs))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("alert marker: %v", err)
	}

	wake(80)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("marker kept after recharge: %v", err)
	}
	wake(15)
	if len(api.inputs) != 2 {
		t.Errorf("published %d after re-arm, want 2", len(api.inputs))
	}
}

func TestLowBatteryPublishFailureRetries(t *testing.T) {
	api := &fakeSNS{err: errors.New("throttled")}
	n := newTestNotifier(api)

	if err := n.LowBattery(context.Background(), 5); err == nil {
		t.Fatal("publish error swallowed")
	}
	api.err = nil
	if err := n.LowBattery(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if len(api.inputs) != 1 {
		t.Errorf("published %d, want 1 after the retry", len(api.inputs))
	}
}

func TestNilNotifier(t *testing.T) {
	n, err := New(context.Background(), "", time.UTC, t.TempDir())
	if err != nil || n != nil {
		t.Fatalf("New without topic = %v, %v", n, err)
	}
	if err := n.LowBattery(context.Background(), 1); err != nil {
		t.Errorf("nil notifier: %v", err)
	}
}
