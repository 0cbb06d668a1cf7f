package kvstore

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type kvModel struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Payload   []byte    `gorm:"column:payload"`
	Revision  int64     `gorm:"column:revision"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (kvModel) TableName() string { return "kv_records" }

// GormStore keeps each key as one row with a monotonically increasing
// revision. Watch polls the revision; writes made through this handle are
// remembered so the poll only fires for foreign ones.
type GormStore struct {
	db   *gorm.DB
	poll time.Duration

	mu  sync.Mutex
	own map[string]int64 // last revision produced by this handle (0 = deleted)
}

func NewGormStore(db *gorm.DB, pollInterval time.Duration) *GormStore {
	return &GormStore{
		db:   db,
		poll: pollInterval,
		own:  make(map[string]int64),
	}
}

func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&kvModel{})
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var m kvModel
	tx := s.db.WithContext(ctx).Where("key = ?", key).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, tx.Error
	}
	out := make([]byte, len(m.Payload))
	copy(out, m.Payload)
	return out, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC()
	var rev int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, key, value, now); err != nil {
			return err
		}

		var cur kvModel
		if err := tx.Select("revision").Where("key = ?", key).First(&cur).Error; err != nil {
			return err
		}
		rev = cur.Revision
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.own[key] = rev
	s.mu.Unlock()
	return nil
}

func upsert(tx *gorm.DB, key string, value []byte, now time.Time) error {
	updates := map[string]interface{}{
		"payload":    value,
		"revision":   gorm.Expr("revision + 1"),
		"updated_at": now,
	}

	res := tx.Model(&kvModel{}).Where("key = ?", key).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	m := kvModel{Key: key, Payload: value, Revision: 1, UpdatedAt: now}
	if err := tx.Create(&m).Error; err != nil {
		// Lost the first-insert race to another context; the row exists now.
		if isUniqueViolation(err) {
			return tx.Model(&kvModel{}).Where("key = ?", key).Updates(updates).Error
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	tx := s.db.WithContext(ctx).Where("key = ?", key).Delete(&kvModel{})
	if tx.Error != nil {
		return tx.Error
	}

	s.mu.Lock()
	s.own[key] = 0
	s.mu.Unlock()
	return nil
}

func (s *GormStore) Watch(key string, fn func(value []byte)) (stop func()) {
	stopCh := make(chan struct{})

	go func() {
		lastSeen := s.currentRevision(key)

		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
			}

			var m kvModel
			err := s.db.Where("key = ?", key).First(&m).Error

			var rev int64
			var payload []byte
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				rev, payload = 0, nil
			case err != nil:
				log.Printf("kvstore: watch poll for %q failed: %v", key, err)
				continue
			default:
				rev, payload = m.Revision, m.Payload
			}

			if rev == lastSeen {
				continue
			}
			lastSeen = rev

			s.mu.Lock()
			own, wroteHere := s.own[key]
			s.mu.Unlock()
			if wroteHere && own == rev {
				continue
			}

			fn(payload)
		}
	}()

	return func() { close(stopCh) }
}

func (s *GormStore) currentRevision(key string) int64 {
	var m kvModel
	if err := s.db.Select("revision").Where("key = ?", key).First(&m).Error; err != nil {
		return 0
	}
	return m.Revision
}
