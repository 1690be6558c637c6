package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pefman/warband-tracker/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Store keeps warbands, fighters and battle records in a gorm database.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
	now func() time.Time
}

var _ Provider = (*Store)(nil)

func NewStore(db *gorm.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log, now: time.Now}
}

func notFound(err error, what string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %v", ErrNotFound, what, id)
	}
	return err
}

// ========================= Warbands =========================

// ListWarbands returns the warbands of owner, or every warband when owner is empty.
func (s *Store) ListWarbands(ctx context.Context, owner string) ([]models.Warband, error) {
	q := s.db.WithContext(ctx).Order("id")
	if owner != "" {
		q = q.Where("owner = ?", owner)
	}
	var out []models.Warband
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetWarband(ctx context.Context, id int64) (models.Warband, error) {
	var w models.Warband
	if err := s.db.WithContext(ctx).First(&w, id).Error; err != nil {
		return models.Warband{}, notFound(err, "warband", id)
	}
	return w, nil
}

// CreateWarband validates and inserts w. Points are derived from fighters, so
// a new warband always starts at zero.
func (s *Store) CreateWarband(ctx context.Context, w *models.Warband) error {
	if w.PointsLimit == 0 {
		w.PointsLimit = 1000
	}
	if err := w.Validate(); err != nil {
		return err
	}
	w.ID = 0
	w.CurrentPoints = 0
	w.ShareCode = ""
	if w.Public {
		w.ShareCode = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return err
	}
	s.log.Debug().Int64("warband", w.ID).Str("name", w.Name).Msg("roster: warband created")
	return nil
}

// UpdateWarband saves every editable field of w. CurrentPoints and the share
// code are owned by the store and are kept as stored.
func (s *Store) UpdateWarband(ctx context.Context, w *models.Warband) error {
	if err := w.Validate(); err != nil {
		return err
	}
	cur, err := s.GetWarband(ctx, w.ID)
	if err != nil {
		return err
	}
	w.CurrentPoints = cur.CurrentPoints
	w.CreatedAt = cur.CreatedAt
	w.Views = cur.Views
	w.ShareCode = cur.ShareCode
	if w.Public && w.ShareCode == "" {
		w.ShareCode = uuid.NewString()
	}
	return s.db.WithContext(ctx).Save(w).Error
}

// DeleteWarband removes a warband and its fighters.
func (s *Store) DeleteWarband(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("warband_id = ?", id).Delete(&models.Fighter{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Warband{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: warband %d", ErrNotFound, id)
		}
		return nil
	})
}

// ShareWarband makes a warband public and returns it with its share code.
func (s *Store) ShareWarband(ctx context.Context, id int64) (models.Warband, error) {
	w, err := s.GetWarband(ctx, id)
	if err != nil {
		return models.Warband{}, err
	}
	if w.Public && w.ShareCode != "" {
		return w, nil
	}
	w.Public = true
	if w.ShareCode == "" {
		w.ShareCode = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Model(&w).Select("public", "share_code").Updates(&w).Error; err != nil {
		return models.Warband{}, err
	}
	s.log.Info().Int64("warband", id).Str("code", w.ShareCode).Msg("roster: warband shared")
	return w, nil
}

// ListPublic returns every public warband.
func (s *Store) ListPublic(ctx context.Context) ([]models.Warband, error) {
	var out []models.Warband
	if err := s.db.WithContext(ctx).Where("public = ?", true).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// PublicRoster fetches a shared warband and its fighters by share code and
// counts the view.
func (s *Store) PublicRoster(ctx context.Context, code string) (models.Roster, error) {
	var w models.Warband
	err := s.db.WithContext(ctx).Where("share_code = ? AND public = ?", code, true).First(&w).Error
	if err != nil {
		return models.Roster{}, notFound(err, "shared warband", code)
	}
	if err := s.db.WithContext(ctx).Model(&w).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		return models.Roster{}, err
	}
	w.Views++
	fighters, err := s.ListFighters(ctx, w.ID)
	if err != nil {
		return models.Roster{}, err
	}
	return models.Roster{Warband: w, Fighters: fighters}, nil
}

// CopyWarband clones warband id and its fighters into a new private warband
// for owner. The source must be public or already belong to owner. Fighter
// battle records start fresh on the copy.
func (s *Store) CopyWarband(ctx context.Context, id int64, owner string) (models.Roster, error) {
	src, err := s.GetWarband(ctx, id)
	if err != nil {
		return models.Roster{}, err
	}
	if !src.Public && src.Owner != owner {
		return models.Roster{}, fmt.Errorf("%w: warband %d", ErrNotShared, id)
	}
	fighters, err := s.ListFighters(ctx, id)
	if err != nil {
		return models.Roster{}, err
	}

	dst := src
	dst.ID = 0
	dst.Owner = owner
	dst.Name = src.Name + " (copy)"
	dst.Public = false
	dst.ShareCode = ""
	dst.Views = 0
	dst.CreatedAt = time.Time{}

	out := models.Roster{Fighters: make([]models.Fighter, 0, len(fighters))}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dst).Error; err != nil {
			return err
		}
		for _, f := range fighters {
			f.ID = 0
			f.WarbandID = dst.ID
			f.Battles, f.Kills, f.Deaths = 0, 0, 0
			if err := tx.Create(&f).Error; err != nil {
				return err
			}
			out.Fighters = append(out.Fighters, f)
		}
		return nil
	})
	if err != nil {
		return models.Roster{}, err
	}
	out.Warband = dst
	s.log.Info().Int64("from", id).Int64("warband", dst.ID).Msg("roster: warband copied")
	return out, nil
}

// ========================= Fighters =========================

// ListFighters returns the fighters of a warband in creation order, or every
// fighter when warbandID is zero.
func (s *Store) ListFighters(ctx context.Context, warbandID int64) ([]models.Fighter, error) {
	q := s.db.WithContext(ctx).Order("id")
	if warbandID != 0 {
		q = q.Where("warband_id = ?", warbandID)
	}
	out := []models.Fighter{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetFighter(ctx context.Context, id int64) (models.Fighter, error) {
	var f models.Fighter
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return models.Fighter{}, notFound(err, "fighter", id)
	}
	return f, nil
}

// CreateFighter adds a fighter to an existing warband and refreshes the warband's points.
func (s *Store) CreateFighter(ctx context.Context, f *models.Fighter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if _, err := s.GetWarband(ctx, f.WarbandID); err != nil {
		return err
	}
	f.ID = 0
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(f).Error; err != nil {
			return err
		}
		return recomputePoints(tx, f.WarbandID)
	})
}

// UpdateFighter saves f. Battle counters are kept as stored.
func (s *Store) UpdateFighter(ctx context.Context, f *models.Fighter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	cur, err := s.GetFighter(ctx, f.ID)
	if err != nil {
		return err
	}
	if f.WarbandID != cur.WarbandID {
		if _, err := s.GetWarband(ctx, f.WarbandID); err != nil {
			return err
		}
	}
	f.Battles, f.Kills, f.Deaths = cur.Battles, cur.Kills, cur.Deaths
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(f).Error; err != nil {
			return err
		}
		if f.WarbandID != cur.WarbandID {
			if err := recomputePoints(tx, cur.WarbandID); err != nil {
				return err
			}
		}
		return recomputePoints(tx, f.WarbandID)
	})
}

func (s *Store) DeleteFighter(ctx context.Context, id int64) error {
	f, err := s.GetFighter(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Fighter{}, id).Error; err != nil {
			return err
		}
		return recomputePoints(tx, f.WarbandID)
	})
}

// recomputePoints sets a warband's CurrentPoints to the sum of its fighters' costs.
func recomputePoints(tx *gorm.DB, warbandID int64) error {
	var total int64
	err := tx.Model(&models.Fighter{}).
		Where("warband_id = ?", warbandID).
		Select("COALESCE(SUM(points_cost), 0)").
		Scan(&total).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.Warband{}).
		Where("id = ?", warbandID).
		UpdateColumn("current_points", total).Error
}

// ========================= Battles =========================

func (s *Store) ListBattles(ctx context.Context) ([]models.Battle, error) {
	var out []models.Battle
	if err := s.db.WithContext(ctx).Order("date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetBattle(ctx context.Context, id int64) (models.Battle, error) {
	var b models.Battle
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return models.Battle{}, notFound(err, "battle", id)
	}
	return b, nil
}

func (s *Store) CreateBattle(ctx context.Context, b *models.Battle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.ID = 0
	if b.Date.IsZero() {
		b.Date = s.now().UTC()
	}
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *Store) UpdateBattle(ctx context.Context, b *models.Battle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if _, err := s.GetBattle(ctx, b.ID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(b).Error
}

// DeleteBattle removes a battle and its fighter stats. Fighter counters are not rolled back.
func (s *Store) DeleteBattle(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("battle_id = ?", id).Delete(&models.BattleFighterStat{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Battle{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: battle %d", ErrNotFound, id)
		}
		return nil
	})
}

func (s *Store) BattleStats(ctx context.Context, battleID int64) ([]models.BattleFighterStat, error) {
	out := []models.BattleFighterStat{}
	if err := s.db.WithContext(ctx).Where("battle_id = ?", battleID).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AddBattleFighterStat stores one fighter's result in an existing battle and
// updates that fighter's running totals.
func (s *Store) AddBattleFighterStat(ctx context.Context, st *models.BattleFighterStat) error {
	if _, err := s.GetBattle(ctx, st.BattleID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return addStat(tx, st)
	})
}

// RecordBattle stores a battle together with its per-fighter stats in one transaction.
func (s *Store) RecordBattle(ctx context.Context, b *models.Battle, stats []models.BattleFighterStat) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.ID = 0
	if b.Date.IsZero() {
		b.Date = s.now().UTC()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		for i := range stats {
			stats[i].BattleID = b.ID
			if err := addStat(tx, &stats[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Int64("battle", b.ID).Int("fighters", len(stats)).Msg("roster: battle recorded")
	return nil
}

func addStat(tx *gorm.DB, st *models.BattleFighterStat) error {
	if st.Kills < 0 {
		return fmt.Errorf("%w: kills must not be negative", models.ErrInvalid)
	}
	st.ID = 0
	if err := tx.Create(st).Error; err != nil {
		return err
	}
	deaths := 0
	if st.WasKilled {
		deaths = 1
	}
	// temporary fighters have no stored record to update
	if st.FighterID <= 0 {
		return nil
	}
	return tx.Model(&models.Fighter{}).Where("id = ?", st.FighterID).Updates(map[string]any{
		"battles": gorm.Expr("battles + 1"),
		"kills":   gorm.Expr("kills + ?", st.Kills),
		"deaths":  gorm.Expr("deaths + ?", deaths),
	}).Error
}
