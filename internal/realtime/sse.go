package realtime

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// WriteEvent writes one server-sent event. Multi-line data is split into
// several data fields.
func WriteEvent(w io.Writer, name string, data []byte) error {
	var buf bytes.Buffer
	if name != "" {
		fmt.Fprintf(&buf, "event: %s\n", name)
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// Stream relays subscription messages as "change" events until ctx is done,
// the subscription closes, or a write fails. A comment line is sent every
// heartbeat to keep proxies from closing idle connections.
func Stream(ctx context.Context, w *bufio.Writer, sub Subscription, heartbeat time.Duration) error {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	if err := WriteEvent(w, "ready", []byte("{}")); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			if err := WriteEvent(w, "change", msg); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
