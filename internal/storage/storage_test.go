package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleRecords() []*types.TopicStats {
	a := types.NewTopicStats("#春节#")
	a.ReadCount = 150000000
	a.DiscussionCount = 23000
	a.InteractionCount = 5
	a.OriginalCount = 1
	a.SetBestRank(3)
	a.SetListedMinutes(1590)
	a.FetchedAt = time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)

	b := types.NewTopicStats("plain")
	b.ReadCount = 42
	return []*types.TopicStats{a, b}
}

func TestCSVStorageWithBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "stats.csv")
	s, err := NewCSVStorage(path, config.OutputConfig{BOM: true, HeaderLang: "zh"}, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store(sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("expected UTF-8 BOM, got % x", data[:3])
	}

	want := "话题,阅读量,讨论量,互动量,原创量,最高排名,在榜时长(分钟)\n" +
		"#春节#,150000000,23000,5,1,3,1590\n" +
		"plain,42,0,0,0,,\n"
	if got := string(data[3:]); got != want {
		t.Errorf("unexpected CSV:\n%s\nwant:\n%s", got, want)
	}
}

func TestCSVStorageEnglishNoBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	s, err := NewCSVStorage(path, config.OutputConfig{HeaderLang: "en"}, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	want := "topic,read_count,discussion_count,interaction_count,original_count,best_rank,listed_minutes\n"
	if string(data) != want {
		t.Errorf("expected header-only file, got %q", data)
	}
}

func TestJSONStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	s, err := NewJSONStorage(path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	s.Store(sampleRecords())
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0]["topic"] != "#春节#" || got[0]["best_rank"] != float64(3) {
		t.Errorf("unexpected first record %v", got[0])
	}
	if got[1]["best_rank"] != nil || got[1]["listed_minutes"] != nil {
		t.Errorf("absent fields should be null, got %v", got[1])
	}
}

func TestJSONLStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.jsonl")
	s, err := NewJSONLStorage(path, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store(sampleRecords()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var rec types.TopicStats
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Topic != "plain" || rec.ReadCount != 42 {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestXLSXStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.xlsx")
	s, err := NewXLSXStorage(path, config.OutputConfig{HeaderLang: "zh", SheetName: "topics"}, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	s.Store(sampleRecords())
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("topics")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "话题" || rows[0][6] != "在榜时长(分钟)" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "150000000" || rows[1][5] != "3" || rows[1][6] != "1590" {
		t.Errorf("unexpected first row %v", rows[1])
	}
	if rows[2][0] != "plain" || rows[2][1] != "42" {
		t.Errorf("unexpected second row %v", rows[2])
	}
	for _, cell := range rows[2][5:] {
		if cell != "" {
			t.Errorf("absent values should be blank, got %q", cell)
		}
	}
}

func TestPathFor(t *testing.T) {
	tests := []struct {
		base, ext, want string
	}{
		{"output.csv", "csv", "output.csv"},
		{"output.csv", "xlsx", "output.xlsx"},
		{"out/stats", "json", "out/stats.json"},
		{"out/stats.CSV", "csv", "out/stats.CSV"},
	}
	for _, tt := range tests {
		if got := PathFor(tt.base, tt.ext); got != tt.want {
			t.Errorf("PathFor(%q, %q) = %q, want %q", tt.base, tt.ext, got, tt.want)
		}
	}
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Output.Path = filepath.Join(dir, "stats.csv")
	cfg.Output.Formats = []string{"csv", "XLSX", "jsonl"}

	s, err := NewFromConfig(cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	multi, ok := s.(*MultiStorage)
	if !ok {
		t.Fatalf("expected MultiStorage, got %T", s)
	}
	if len(multi.Backends()) != 3 {
		t.Fatalf("expected 3 backends, got %d", len(multi.Backends()))
	}
	if err := s.Store(sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"stats.csv", "stats.xlsx", "stats.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}

	cfg.Output.Formats = []string{"csv"}
	single, err := NewFromConfig(cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer single.Close()
	if single.Name() != "csv" {
		t.Errorf("expected bare csv backend, got %s", single.Name())
	}
}

func TestNewFromConfigUnknownFormat(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Path = filepath.Join(t.TempDir(), "stats.csv")
	cfg.Output.Formats = []string{"csv", "parquet"}

	_, err := NewFromConfig(cfg, testLogger)
	var storageErr *types.StorageError
	if !errors.As(err, &storageErr) || storageErr.Backend != "parquet" {
		t.Fatalf("expected StorageError for parquet, got %v", err)
	}
}

type stubStorage struct {
	name   string
	err    error
	stored int
}

func (s *stubStorage) Store(records []*types.TopicStats) error {
	if s.err != nil {
		return s.err
	}
	s.stored += len(records)
	return nil
}

func (s *stubStorage) Close() error { return nil }
func (s *stubStorage) Name() string { return s.name }

func TestMultiStorageFailures(t *testing.T) {
	good := &stubStorage{name: "good"}
	bad := &stubStorage{name: "bad", err: errors.New("disk full")}

	partial := NewMultiStorage([]Storage{bad, good}, testLogger)
	if err := partial.Store(sampleRecords()); err != nil {
		t.Errorf("one working backend should be enough, got %v", err)
	}
	if good.stored != 2 {
		t.Errorf("good backend should still receive records, got %d", good.stored)
	}

	allBad := NewMultiStorage([]Storage{bad, &stubStorage{name: "worse", err: errors.New("offline")}}, testLogger)
	err := allBad.Store(sampleRecords())
	var storageErr *types.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError when every backend fails, got %v", err)
	}
}

func TestUpsertModelsFilterByTopic(t *testing.T) {
	models := upsertModels(sampleRecords())
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	m, ok := models[0].(*mongo.ReplaceOneModel)
	if !ok {
		t.Fatalf("expected ReplaceOneModel, got %T", models[0])
	}
	filter, ok := m.Filter.(bson.D)
	if !ok || len(filter) != 1 || filter[0].Key != "topic" || filter[0].Value != "#春节#" {
		t.Errorf("unexpected filter %v", m.Filter)
	}
	if m.Upsert == nil || !*m.Upsert {
		t.Error("expected upsert to be enabled")
	}
}

func TestMongoStorage(t *testing.T) {
	uri := os.Getenv("TOPICPULSE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TOPICPULSE_TEST_MONGO_URI not set")
	}

	coll := "topic_stats_test_" + time.Now().Format("150405")
	s, err := NewMongoStorage(uri, "topicpulse_test", coll, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	defer s.collection.Drop(t.Context())

	records := sampleRecords()
	if err := s.Store(records); err != nil {
		t.Fatal(err)
	}
	records[1].ReadCount = 43
	if err := s.Store(records[1:]); err != nil {
		t.Fatal(err)
	}

	n, err := s.collection.CountDocuments(t.Context(), bson.D{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected upserts to keep 2 documents, got %d", n)
	}

	var got types.TopicStats
	if err := s.collection.FindOne(t.Context(), bson.D{{Key: "topic", Value: "plain"}}).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ReadCount != 43 {
		t.Errorf("expected refreshed read count 43, got %d", got.ReadCount)
	}
}
