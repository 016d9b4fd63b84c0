package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/map-draft-backend/internal/draft"
)

type stageModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string
	BestOf          int
	BanCount        int
	TurnDurationSec int
	PatternJSON     string
	TiebreakerPool  string
	CreatedAt       time.Time
}

type poolItemModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	StageID  string `gorm:"index"`
	Pool     string
	Position int
	ItemID   string
}

type matchModel struct {
	ID        string `gorm:"primaryKey"`
	StageID   string `gorm:"index"`
	RedName   string
	BlueName  string
	Started   bool
	CreatedAt time.Time
}

type actionModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	MatchID    string `gorm:"index:idx_match_seq,unique"`
	Seq        int    `gorm:"index:idx_match_seq,unique"`
	Side       string
	Type       string
	ItemID     *string
	Value      int
	Preference string
	CreatedAt  time.Time
}

// Postgres is the GORM-backed Store.
type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&stageModel{}, &poolItemModel{}, &matchModel{}, &actionModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) CreateStage(ctx context.Context, rec StageRecord) error {
	pat, err := json.Marshal(rec.Config.Pattern)
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := stageModel{
			ID:              rec.Config.ID,
			Name:            rec.Config.Name,
			BestOf:          rec.Config.BestOf,
			BanCount:        rec.Config.BanCount,
			TurnDurationSec: int(rec.Config.TurnDuration / time.Second),
			PatternJSON:     string(pat),
			TiebreakerPool:  rec.Catalog.Tiebreaker,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		for _, pool := range rec.Catalog.Pools {
			for i, item := range pool.Items {
				row := poolItemModel{StageID: rec.Config.ID, Pool: pool.Name, Position: i, ItemID: item}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (p *Postgres) GetStage(ctx context.Context, id string) (StageRecord, error) {
	var m stageModel
	if err := p.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StageRecord{}, ErrNotFound
		}
		return StageRecord{}, err
	}
	var pattern draft.Pattern
	if err := json.Unmarshal([]byte(m.PatternJSON), &pattern); err != nil {
		return StageRecord{}, fmt.Errorf("decode pattern for stage %s: %w", id, err)
	}
	var items []poolItemModel
	if err := p.db.WithContext(ctx).
		Where("stage_id = ?", id).
		Order("pool, position").
		Find(&items).Error; err != nil {
		return StageRecord{}, err
	}
	cat := draft.Catalog{Tiebreaker: m.TiebreakerPool}
	for _, it := range items {
		if n := len(cat.Pools); n == 0 || cat.Pools[n-1].Name != it.Pool {
			cat.Pools = append(cat.Pools, draft.Pool{Name: it.Pool})
		}
		last := &cat.Pools[len(cat.Pools)-1]
		last.Items = append(last.Items, it.ItemID)
	}
	return StageRecord{
		Config: draft.StageConfig{
			ID:           m.ID,
			Name:         m.Name,
			BestOf:       m.BestOf,
			BanCount:     m.BanCount,
			TurnDuration: time.Duration(m.TurnDurationSec) * time.Second,
			Pattern:      pattern,
		},
		Catalog: cat,
	}, nil
}

func (p *Postgres) CreateMatch(ctx context.Context, rec MatchRecord) error {
	m := matchModel{
		ID:        rec.ID,
		StageID:   rec.StageID,
		RedName:   rec.RedName,
		BlueName:  rec.BlueName,
		Started:   rec.Started,
		CreatedAt: rec.CreatedAt,
	}
	return p.db.WithContext(ctx).Create(&m).Error
}

func (p *Postgres) GetMatch(ctx context.Context, id string) (MatchRecord, error) {
	var m matchModel
	if err := p.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MatchRecord{}, ErrNotFound
		}
		return MatchRecord{}, err
	}
	return matchRecord(m), nil
}

func (p *Postgres) ListMatches(ctx context.Context) ([]MatchRecord, error) {
	var rows []matchModel
	if err := p.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]MatchRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, matchRecord(m))
	}
	return out, nil
}

func matchRecord(m matchModel) MatchRecord {
	return MatchRecord{
		ID:        m.ID,
		StageID:   m.StageID,
		RedName:   m.RedName,
		BlueName:  m.BlueName,
		Started:   m.Started,
		CreatedAt: m.CreatedAt,
	}
}

func (p *Postgres) SetMatchStarted(ctx context.Context, id string, started bool) error {
	res := p.db.WithContext(ctx).Model(&matchModel{}).Where("id = ?", id).Update("started", started)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AppendAction(ctx context.Context, matchID string, e draft.Entry) error {
	m := actionModel{
		MatchID:    matchID,
		Seq:        e.Seq,
		Side:       string(e.Side),
		Type:       string(e.Type),
		ItemID:     e.ItemID,
		Value:      e.Value,
		Preference: string(e.Preference),
	}
	return p.db.WithContext(ctx).Create(&m).Error
}

func (p *Postgres) DeleteLastAction(ctx context.Context, matchID string) error {
	var last actionModel
	err := p.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("seq DESC").
		First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return p.db.WithContext(ctx).Delete(&actionModel{}, last.ID).Error
}

func (p *Postgres) DeleteRollActions(ctx context.Context, matchID string) error {
	return p.db.WithContext(ctx).
		Where("match_id = ? AND type = ?", matchID, string(draft.ActionRoll)).
		Delete(&actionModel{}).Error
}

func (p *Postgres) ClearActions(ctx context.Context, matchID string) error {
	return p.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Delete(&actionModel{}).Error
}

func (p *Postgres) ListActions(ctx context.Context, matchID string) ([]draft.Entry, error) {
	var rows []actionModel
	if err := p.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("seq").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]draft.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, draft.Entry{
			Seq:        r.Seq,
			Side:       draft.Side(r.Side),
			Type:       draft.ActionType(r.Type),
			ItemID:     r.ItemID,
			Value:      r.Value,
			Preference: draft.Preference(r.Preference),
		})
	}
	return out, nil
}
