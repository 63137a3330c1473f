package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"wellnesschat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// MemoryStateRepository keeps the state in process memory. Used in tests and as
// the fallback when no durable backend is configured.
type MemoryStateRepository struct {
	mu    sync.Mutex
	state models.State
	saves int
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{}
}

func (r *MemoryStateRepository) Load(ctx context.Context) (models.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyState(r.state), nil
}

func (r *MemoryStateRepository) Save(ctx context.Context, state models.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = copyState(state)
	r.saves++
	return nil
}

// Saves returns how many times Save was called.
func (r *MemoryStateRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func copyState(s models.State) models.State {
	out := models.State{
		Waiting: append([]models.WaitingEntry(nil), s.Waiting...),
	}
	for i := range s.Rooms {
		out.Rooms = append(out.Rooms, *s.Rooms[i].Clone())
	}
	return out
}

// FileStateRepository stores the state as one JSON document, rewritten whole on every save.
type FileStateRepository struct {
	Path string
}

func NewFileStateRepository(path string) *FileStateRepository {
	return &FileStateRepository{Path: path}
}

// Load returns an empty state when the file does not exist yet.
func (r *FileStateRepository) Load(ctx context.Context) (models.State, error) {
	var state models.State
	data, err := os.ReadFile(r.Path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return models.State{}, fmt.Errorf("parse state file %s: %w", r.Path, err)
	}
	return state, nil
}

// Save writes to a temp file in the same directory and renames it over the old one.
func (r *FileStateRepository) Save(ctx context.Context, state models.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.Path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.Path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// RedisStateRepository stores the state as a msgpack blob under a single key.
type RedisStateRepository struct {
	Redis *redis.Client
	Key   string
}

// NewRedisStateRepository connects to redisURL and checks the connection.
func NewRedisStateRepository(ctx context.Context, redisURL, key string) (*RedisStateRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStateRepository{Redis: client, Key: key}, nil
}

// Load returns an empty state when the key does not exist yet.
func (r *RedisStateRepository) Load(ctx context.Context) (models.State, error) {
	var state models.State
	data, err := r.Redis.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("redis get %s: %w", r.Key, err)
	}
	return decodeState(data)
}

func (r *RedisStateRepository) Save(ctx context.Context, state models.State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := r.Redis.Set(ctx, r.Key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.Key, err)
	}
	return nil
}

func (r *RedisStateRepository) Close() error {
	return r.Redis.Close()
}

func encodeState(state models.State) ([]byte, error) {
	data, err := msgpack.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (models.State, error) {
	var state models.State
	if err := msgpack.Unmarshal(data, &state); err != nil {
		return models.State{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}
