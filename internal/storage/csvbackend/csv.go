package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"id",
	"query",
	"translated",
	"intent",
	"search_text",
	"profile_json",
	"stores",
	"failed_json",
	"listings",
	"products",
	"disqualified",
	"results",
	"top_score",
	"outcome",
	"duration_ms",
	"created_at",
	"error",
}

// New creates a new CSV-backed storage.Backend. A header row is written when
// the file is empty.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("csvbackend: open %s: %w", filePath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csvbackend: stat: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: write header: %w", err)
		}
	}

	return &csvBackend{
		file: f,
	}, nil
}

func (b *csvBackend) Save(ctx context.Context, run *storage.Run) error {
	profile, failed, err := run.EncodeColumns()
	if err != nil {
		return fmt.Errorf("csvbackend: %w", err)
	}

	record := []string{
		run.ID,
		run.Query,
		run.Translated,
		string(run.Intent),
		run.SearchText,
		profile,
		strconv.Itoa(run.Stores),
		failed,
		strconv.Itoa(run.Listings),
		strconv.Itoa(run.Products),
		strconv.Itoa(run.Disqualified),
		strconv.Itoa(run.Results),
		strconv.FormatFloat(run.TopScore, 'f', -1, 64),
		string(run.Outcome),
		strconv.FormatInt(run.Duration.Milliseconds(), 10),
		run.CreatedAt.Format(time.RFC3339Nano),
		run.Error,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("csvbackend: seek: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("csvbackend: write run %s: %w", run.ID, err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("csvbackend: write run %s: %w", run.ID, err)
	}

	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Run, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("csvbackend: seek: %w", err)
	}
	defer func() {
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)
	r.FieldsPerRecord = -1

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []*storage.Run{}, nil
		}
		return nil, fmt.Errorf("csvbackend: read header: %w", err)
	}

	matched := []*storage.Run{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvbackend: read: %w", err)
		}

		run, ok := parseRecord(record)
		if !ok {
			continue // skip malformed rows
		}
		if !filter.Match(run) {
			continue
		}
		matched = append(matched, run)
	}

	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	return filter.Window(matched), nil
}

func parseRecord(record []string) (*storage.Run, bool) {
	if len(record) != len(headers) {
		return nil, false
	}
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	topScore, _ := strconv.ParseFloat(record[12], 64)
	durationMs, _ := strconv.ParseInt(record[14], 10, 64)
	createdAt, err := time.Parse(time.RFC3339Nano, record[15])
	if err != nil {
		return nil, false
	}

	run := &storage.Run{
		ID:           record[0],
		Query:        record[1],
		Translated:   record[2],
		Intent:       model.Intent(record[3]),
		SearchText:   record[4],
		Stores:       atoi(record[6]),
		Listings:     atoi(record[8]),
		Products:     atoi(record[9]),
		Disqualified: atoi(record[10]),
		Results:      atoi(record[11]),
		TopScore:     topScore,
		Outcome:      storage.Outcome(record[13]),
		Duration:     time.Duration(durationMs) * time.Millisecond,
		CreatedAt:    createdAt,
		Error:        record[16],
	}
	if err := run.DecodeColumns(record[5], record[7]); err != nil {
		return nil, false
	}
	return run, true
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
