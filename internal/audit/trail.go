// Package audit keeps an append-only, tamper-evident trail of every
// validation outcome and query the system performs.
package audit

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// rotateSize is the segment size at which the active file is closed
// and compressed.
const rotateSize = 8 << 20

// Entry is one audit record. Hash covers PrevHash plus the entry body,
// chaining every entry to its predecessor.
type Entry struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Action   string    `json:"action"`
	Channel  string    `json:"channel"`
	Filter   string    `json:"filter,omitempty"`
	Outcome  string    `json:"outcome"`
	PrevHash string    `json:"prev_hash"`
	Hash     string    `json:"hash"`
}

// Trail is a mutex-guarded JSONL append file with size-based rotation.
type Trail struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	size     int64
	prevHash string
}

// Open opens or creates the trail at path and recovers the chain tip
// from the existing content.
func Open(path string) (*Trail, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	t := &Trail{file: f, path: path}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	t.size = info.Size()

	if t.size > 0 {
		tip, err := lastHash(path)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("recover audit chain: %w", err)
		}
		t.prevHash = tip
	}
	return t, nil
}

// Record satisfies the orchestrator's AuditRecorder. Append failures
// are logged, not propagated: auditing must never fail a query.
func (t *Trail) Record(action, channel, filter, outcome string) {
	e := Entry{
		ID:      uuid.NewString(),
		Time:    time.Now().UTC(),
		Action:  action,
		Channel: channel,
		Filter:  filter,
		Outcome: outcome,
	}
	if err := t.Append(e); err != nil {
		log.Printf("[audit] append failed: %v", err)
	}
}

// Append seals e into the chain and writes it. The file is synced per
// entry so a crash cannot lose acknowledged records.
func (t *Trail) Append(e Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e.PrevHash = t.prevHash
	e.Hash = chainHash(e)

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if _, err := t.file.Write(data); err != nil {
		return err
	}
	if err := t.file.Sync(); err != nil {
		return err
	}
	t.prevHash = e.Hash
	t.size += int64(len(data))

	if t.size >= rotateSize {
		if err := t.rotateLocked(); err != nil {
			return fmt.Errorf("rotate audit trail: %w", err)
		}
	}
	return nil
}

// Close closes the active segment.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}

// rotateLocked compresses the full segment to a .zst sibling and
// starts a fresh file. The hash chain continues across segments.
func (t *Trail) rotateLocked() error {
	if err := t.file.Close(); err != nil {
		return err
	}

	sealed := fmt.Sprintf("%s.%s.zst", t.path, time.Now().UTC().Format("20060102T150405"))
	if err := compressFile(t.path, sealed); err != nil {
		return err
	}
	if err := os.Remove(t.path); err != nil {
		return err
	}

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	t.file = f
	t.size = 0
	return nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Verify walks a plain (uncompressed) segment and recomputes the
// chain. It returns the number of valid entries and an error naming
// the first broken link, if any.
func Verify(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	prev := ""
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return count, fmt.Errorf("entry %d: malformed: %w", count+1, err)
		}
		if count > 0 && e.PrevHash != prev {
			return count, fmt.Errorf("entry %d (%s): chain broken", count+1, e.ID)
		}
		if chainHash(e) != e.Hash {
			return count, fmt.Errorf("entry %d (%s): hash mismatch", count+1, e.ID)
		}
		prev = e.Hash
		count++
	}
	return count, scanner.Err()
}

// chainHash hashes the previous hash plus the entry body.
func chainHash(e Entry) string {
	body := fmt.Sprintf("%s|%s|%d|%s|%s|%s|%s",
		e.PrevHash, e.ID, e.Time.UnixNano(), e.Action, e.Channel, e.Filter, e.Outcome)
	sum := blake2b.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

func lastHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	last := ""
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return "", err
		}
		last = e.Hash
	}
	return last, scanner.Err()
}
