package datastores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ContactsPostgres implements [Persister] on top of PostgreSQL.
type ContactsPostgres struct {
	DB *gorm.DB
}

var _ Persister = (*ContactsPostgres)(nil)

type contactRow struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false"`
	Name     string `gorm:"not null"`
	Phone    string `gorm:"not null"`
	Position int    `gorm:"not null;index"`
}

func (contactRow) TableName() string { return "contacts" }

type directoryMetaRow struct {
	Key   string `gorm:"primaryKey"`
	Value int64  `gorm:"not null"`
}

func (directoryMetaRow) TableName() string { return "directory_meta" }

const nextIDKey = "next_id"

// OpenPostgres connects to dsn, checks the connection and migrates the tables.
func OpenPostgres(ctx context.Context, dsn string) (*ContactsPostgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}
	p := &ContactsPostgres{DB: db}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = p.Ping(pingCtx)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	err = db.WithContext(ctx).AutoMigrate(&contactRow{}, &directoryMetaRow{})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return p, nil
}

func (p *ContactsPostgres) LoadAll(ctx context.Context) (Directory, error) {
	var d Directory

	var meta directoryMetaRow
	err := p.DB.WithContext(ctx).Where("key = ?", nextIDKey).First(&meta).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return d, err
	default:
		d.NextID = meta.Value
	}

	var rows []contactRow
	err = p.DB.WithContext(ctx).Order("position").Find(&rows).Error
	if err != nil {
		return d, err
	}
	d.Contacts = make([]*Contact, 0, len(rows))
	for _, row := range rows {
		d.Contacts = append(d.Contacts, &Contact{ID: row.ID, Name: row.Name, Phone: row.Phone})
	}
	return d, nil
}

// Persist rewrites both tables in a single transaction.
func (p *ContactsPostgres) Persist(ctx context.Context, d Directory) error {
	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&contactRow{}).Error
		if err != nil {
			return err
		}
		if len(d.Contacts) > 0 {
			rows := make([]contactRow, 0, len(d.Contacts))
			for i, c := range d.Contacts {
				rows = append(rows, contactRow{ID: c.ID, Name: c.Name, Phone: c.Phone, Position: i})
			}
			err = tx.CreateInBatches(rows, 500).Error //nolint: mnd // arbitrary
			if err != nil {
				return err
			}
		}
		return tx.Save(&directoryMetaRow{Key: nextIDKey, Value: d.NextID}).Error
	})
}

func (p *ContactsPostgres) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *ContactsPostgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
