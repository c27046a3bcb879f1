package battery

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// PiSugar speaks the power manager daemon's line protocol: one command per
// connection, one "<name>: <value>" line back.
type PiSugar struct {
	Addr    string
	Timeout time.Duration
}

func NewPiSugar(addr string) *PiSugar {
	if addr == "" {
		addr = "127.0.0.1:8423"
	}
	return &PiSugar{Addr: addr, Timeout: 5 * time.Second}
}

func (p *PiSugar) Read(ctx context.Context) (Status, error) {
	reply, err := p.command(ctx, "get battery")
	if err != nil {
		return Status{}, err
	}
	fields := strings.Fields(reply)
	if len(fields) == 0 {
		return Status{}, fmt.Errorf("battery: empty reply from %s", p.Addr)
	}
	pct, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return Status{}, fmt.Errorf("battery: invalid reply %q: %w", reply, err)
	}
	return Status{Percent: pct, Source: "pisugar"}, nil
}

// SetAlarm asks the daemon to wake the board at the given time, every day of
// the week.
func (p *PiSugar) SetAlarm(ctx context.Context, at time.Time) error {
	reply, err := p.command(ctx, fmt.Sprintf("rtc_alarm_set %s 127", at.Format(time.RFC3339)))
	if err != nil {
		return err
	}
	if reply != "rtc_alarm_set: done" {
		return fmt.Errorf("battery: rtc_alarm_set rejected: %q", reply)
	}
	return nil
}

func (p *PiSugar) command(ctx context.Context, cmd string) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return "", fmt.Errorf("battery: dial %s: %w", p.Addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("battery: send %q: %w", cmd, err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("battery: read reply to %q: %w", cmd, err)
	}
	return strings.TrimSpace(line), nil
}
