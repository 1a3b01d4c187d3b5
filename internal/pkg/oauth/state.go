package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	stateKeyPrefix = "thrive:oauth:state:"
	stateTTL       = 10 * time.Minute
	defaultReturn  = "/dashboard"
)

var ErrInvalidState = errors.New("invalid or expired oauth state")

// StateStore OAuth state 一次性存储
type StateStore struct {
	rdb *redis.Client
}

func NewStateStore(rdb *redis.Client) *StateStore {
	return &StateStore{rdb: rdb}
}

type stateData struct {
	ReturnTo  string `json:"return_to"`
	CreatedAt int64  `json:"created_at"`
}

// GenerateState 生成随机 state 并记录登录后要返回的站内路径
func (s *StateStore) GenerateState(ctx context.Context, returnTo string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := hex.EncodeToString(buf)

	payload, err := json.Marshal(stateData{ReturnTo: SafeReturnPath(returnTo), CreatedAt: time.Now().Unix()})
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, stateKeyPrefix+state, payload, stateTTL).Err(); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return state, nil
}

// ValidateState 校验并消费 state，返回站内路径
func (s *StateStore) ValidateState(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrInvalidState
	}

	raw, err := s.rdb.GetDel(ctx, stateKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidState
	}
	if err != nil {
		return "", fmt.Errorf("load state: %w", err)
	}

	var data stateData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return "", ErrInvalidState
	}
	return data.ReturnTo, nil
}

// SafeReturnPath 只允许站内相对路径
func SafeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return defaultReturn
	}
	return p
}
