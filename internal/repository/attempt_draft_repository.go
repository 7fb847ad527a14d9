package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"time"

	"github.com/go-redis/redis/v8"
)

// AttemptDraftRepository 作答草稿保存在 Redis，随测验时限过期
type AttemptDraftRepository struct {
	Redis *redis.Client
}

func NewAttemptDraftRepository(rdb *redis.Client) *AttemptDraftRepository {
	return &AttemptDraftRepository{Redis: rdb}
}

func draftKey(attemptID string) string {
	return fmt.Sprintf("quiz:attempt:%s:draft", attemptID)
}

func (r *AttemptDraftRepository) Save(ctx context.Context, draft *model.AttemptDraft, ttl time.Duration) error {
	if r.Redis == nil {
		return util.ErrDraftUnavailable
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, draftKey(draft.AttemptID), data, ttl).Err()
}

func (r *AttemptDraftRepository) Get(ctx context.Context, attemptID string) (*model.AttemptDraft, error) {
	if r.Redis == nil {
		return nil, util.ErrDraftUnavailable
	}
	raw, err := r.Redis.Get(ctx, draftKey(attemptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}

	var draft model.AttemptDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *AttemptDraftRepository) Delete(ctx context.Context, attemptID string) error {
	if r.Redis == nil {
		return nil
	}
	return r.Redis.Del(ctx, draftKey(attemptID)).Err()
}
